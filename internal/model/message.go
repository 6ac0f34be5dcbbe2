package model

import "encoding/json"

// Message type tags. The literal values are shared with the extension
// surfaces and must match on both sides of the channel.
const (
	MessageSendQuick         = "lce/send-quick"
	MessageSendCompose       = "lce/send-compose"
	MessageGetComposeState   = "lce/get-compose-state"
	MessageShowToast         = "lce/show-toast"
	MessageGetActiveMediaURL = "lce/get-active-media-url"
	MessagePermissionRequest = "lce/permission-request"
)

// Send sources identify which surface originated an action.
const (
	SourceYouTube     = "youtube"
	SourceTikTok      = "tiktok"
	SourceTwitter     = "twitter"
	SourceContextMenu = "context-menu"
	SourcePopup       = "popup"
)

// Toast levels.
const (
	ToastInfo    = "info"
	ToastSuccess = "success"
	ToastError   = "error"
)

type SendQuickRequest struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

type SendComposeRequest struct {
	URL          string `json:"url"`
	Text         string `json:"text,omitempty"`
	ForceRefresh bool   `json:"forceRefresh,omitempty"`
	SaveToBoard  bool   `json:"saveToBoard,omitempty"`
}

type GetComposeStateRequest struct{}

type ShowToastMessage struct {
	Type    string `json:"type"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type GetActiveMediaURLRequest struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
}

// PermissionRequestMessage asks the options surface to confirm an
// origin grant. The reply carries the same correlation id.
type PermissionRequestMessage struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Origin string `json:"origin"`
}

type ActionResponse struct {
	OK        bool    `json:"ok"`
	JobID     *string `json:"jobId"`
	Message   string  `json:"message"`
	ErrorCode string  `json:"errorCode,omitempty"`
}

type ComposeStateResponse struct {
	OK            bool    `json:"ok"`
	URL           string  `json:"url"`
	Text          string  `json:"text"`
	ForceRefresh  bool    `json:"forceRefresh"`
	SaveToBoard   bool    `json:"saveToBoard"`
	HasSettings   bool    `json:"hasSettings"`
	SettingsError *string `json:"settingsError"`
	DraftSource   *string `json:"draftSource"`
}

type ActiveMediaURLResponse struct {
	OK  bool   `json:"ok"`
	URL string `json:"url"`
}

var validSources = map[string]bool{
	SourceYouTube:     true,
	SourceTikTok:      true,
	SourceTwitter:     true,
	SourceContextMenu: true,
	SourcePopup:       true,
}

var validToastLevels = map[string]bool{
	ToastInfo:    true,
	ToastSuccess: true,
	ToastError:   true,
}

// DecodeMessage decodes a raw inbound frame into one of the known request
// variants. Guards run in a fixed priority order and perform strict field
// checks: required strings must be strings, optional fields must match their
// declared type when present, and no value is ever coerced. A frame that
// matches no variant returns (nil, false); it is the caller's job to answer
// with the generic unsupported response.
func DecodeMessage(raw []byte) (any, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}

	if req, ok := AsSendQuickRequest(fields); ok {
		return req, true
	}
	if req, ok := AsSendComposeRequest(fields); ok {
		return req, true
	}
	if req, ok := AsGetComposeStateRequest(fields); ok {
		return req, true
	}
	if msg, ok := AsShowToastMessage(fields); ok {
		return msg, true
	}
	return nil, false
}

func AsSendQuickRequest(fields map[string]any) (*SendQuickRequest, bool) {
	if fields["type"] != MessageSendQuick {
		return nil, false
	}
	url, ok := fields["url"].(string)
	if !ok {
		return nil, false
	}
	source, ok := fields["source"].(string)
	if !ok || !validSources[source] {
		return nil, false
	}
	return &SendQuickRequest{URL: url, Source: source}, true
}

func AsSendComposeRequest(fields map[string]any) (*SendComposeRequest, bool) {
	if fields["type"] != MessageSendCompose {
		return nil, false
	}
	url, ok := fields["url"].(string)
	if !ok {
		return nil, false
	}

	req := &SendComposeRequest{URL: url}

	if raw, present := fields["text"]; present {
		text, ok := raw.(string)
		if !ok {
			return nil, false
		}
		req.Text = text
	}
	if raw, present := fields["forceRefresh"]; present {
		force, ok := raw.(bool)
		if !ok {
			return nil, false
		}
		req.ForceRefresh = force
	}
	if raw, present := fields["saveToBoard"]; present {
		save, ok := raw.(bool)
		if !ok {
			return nil, false
		}
		req.SaveToBoard = save
	}
	return req, true
}

func AsGetComposeStateRequest(fields map[string]any) (*GetComposeStateRequest, bool) {
	if fields["type"] != MessageGetComposeState {
		return nil, false
	}
	return &GetComposeStateRequest{}, true
}

func AsShowToastMessage(fields map[string]any) (*ShowToastMessage, bool) {
	if fields["type"] != MessageShowToast {
		return nil, false
	}
	level, ok := fields["level"].(string)
	if !ok || !validToastLevels[level] {
		return nil, false
	}
	message, ok := fields["message"].(string)
	if !ok {
		return nil, false
	}
	return &ShowToastMessage{Type: MessageShowToast, Level: level, Message: message}, true
}
