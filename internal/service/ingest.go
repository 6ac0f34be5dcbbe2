package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/resolver"
)

const maxIngestResponseBytes = 1 << 20

// IngestResult is the tagged outcome of one ingest attempt. Exactly one of
// the success fields or Failure is meaningful; the client never panics and
// never returns a raw transport error.
type IngestResult struct {
	OK      bool
	JobID   string
	Message string
	Failure *model.IngestFailure
}

// ConfigTestResult is the outcome of the options-surface configuration probe.
type ConfigTestResult struct {
	Level   string `json:"level"` // success | warning | error
	Message string `json:"message"`
}

// IngestService performs the single outbound request per action. It reads
// settings on every call (no cache) and requires the target URL to already
// be resolver-normalized.
type IngestService struct {
	settings SettingsStore
	client   *http.Client
	timeout  time.Duration
}

func NewIngestService(settings SettingsStore, timeout time.Duration) *IngestService {
	return &IngestService{
		settings: settings,
		client:   &http.Client{},
		timeout:  timeout,
	}
}

type ingestRequestBody struct {
	Mode         string `json:"mode"`
	URL          string `json:"url"`
	Text         string `json:"text,omitempty"`
	ForceRefresh bool   `json:"forceRefresh,omitempty"`
}

type ingestResponseBody struct {
	JobID   string `json:"jobId"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// Send issues one POST {apiUrl}/ingest and classifies the outcome. No retry
// is ever attempted; a timeout abandons the request.
func (s *IngestService) Send(ctx context.Context, mode, targetURL, text string, forceRefresh bool) IngestResult {
	settings, err := s.settings.Get(ctx)
	if err != nil || !settings.Complete() {
		return failure(&model.IngestFailure{
			Code:    model.FailureSettingsMissing,
			Message: "Configuration incomplète. Ouvre les options de l’extension.",
		})
	}
	if _, err := resolver.NormalizeAPIURL(settings.APIURL); err != nil {
		return failure(&model.IngestFailure{
			Code:    model.FailureInvalidConfig,
			Message: "URL d’API configurée invalide. Corrige-la dans les options.",
		})
	}

	body, _ := json.Marshal(ingestRequestBody{
		Mode:         mode,
		URL:          targetURL,
		Text:         text,
		ForceRefresh: forceRefresh,
	})

	status, respBody, netErr := s.post(ctx, settings, body)
	if netErr != nil {
		return failure(mapNetworkFailure(netErr))
	}

	parsed := parseIngestBody(respBody)
	if status >= 200 && status < 300 {
		message := parsed.Message
		if message == "" {
			message = "Média envoyé vers LiveChat."
		}
		return IngestResult{OK: true, JobID: parsed.JobID, Message: message}
	}
	return failure(mapHTTPFailure(status, parsed))
}

// TestConfig probes the ingest endpoint with an empty payload, the way the
// options "test" button does: a 400 invalid_payload proves the server is
// reachable, the token accepted and the endpoint enabled.
func (s *IngestService) TestConfig(ctx context.Context, settings *model.Settings) ConfigTestResult {
	status, respBody, netErr := s.post(ctx, settings, []byte(`{}`))
	if netErr != nil {
		return ConfigTestResult{Level: "error", Message: mapNetworkFailure(netErr).Message}
	}

	parsed := parseIngestBody(respBody)
	switch {
	case status == 400 && parsed.Error == "invalid_payload":
		return ConfigTestResult{
			Level:   "success",
			Message: "Configuration valide: serveur joignable, token accepté, endpoint /ingest actif.",
		}
	case status == 401 || parsed.Error == "unauthorized":
		return ConfigTestResult{Level: "error", Message: "Token ingest invalide (401 unauthorized)."}
	case status == 503 || parsed.Error == "ingest_api_disabled":
		return ConfigTestResult{Level: "warning", Message: "Le bot répond mais /ingest est désactivé (503)."}
	default:
		return ConfigTestResult{
			Level:   "warning",
			Message: fmt.Sprintf("Serveur joignable, réponse inattendue (%d).", status),
		}
	}
}

func (s *IngestService) post(ctx context.Context, settings *model.Settings, body []byte) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, settings.APIURL+"/ingest", bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+settings.IngestToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxIngestResponseBytes))
	return resp.StatusCode, respBody, nil
}

// parseIngestBody extracts the optional error/code/message/jobId fields.
// Malformed or absent bodies degrade to zero values, never to an error.
func parseIngestBody(raw []byte) ingestResponseBody {
	var parsed ingestResponseBody
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	parsed.JobID = strings.TrimSpace(parsed.JobID)
	parsed.Message = strings.TrimSpace(parsed.Message)
	parsed.Error = strings.TrimSpace(parsed.Error)
	parsed.Code = strings.TrimSpace(parsed.Code)
	return parsed
}

// mapHTTPFailure classifies a non-2xx response. A server-supplied error
// label takes precedence over the bare status code.
func mapHTTPFailure(status int, body ingestResponseBody) *model.IngestFailure {
	switch {
	case status == 400 || body.Error == "invalid_payload":
		return &model.IngestFailure{
			Code:    model.FailureInvalidPayload,
			Status:  status,
			Message: "Requête invalide envoyée au bot LiveChat.",
		}
	case status == 401 || body.Error == "unauthorized":
		return &model.IngestFailure{
			Code:    model.FailureUnauthorized,
			Status:  status,
			Message: "Token ingest invalide ou non autorisé.",
		}
	case status == 422 || body.Error == "media_ingestion_failed":
		message := body.Message
		if message == "" {
			message = "Le média n’a pas pu être ingéré par le bot."
		}
		return &model.IngestFailure{
			Code:    model.FailureMediaIngestion,
			Status:  status,
			Message: message,
			Details: body.Code,
		}
	case status == 503 || body.Error == "ingest_api_disabled":
		return &model.IngestFailure{
			Code:    model.FailureIngestDisabled,
			Status:  status,
			Message: "L’endpoint /ingest est désactivé sur ce bot.",
		}
	case status >= 500:
		return &model.IngestFailure{
			Code:    model.FailureServerError,
			Status:  status,
			Message: "Le bot LiveChat a retourné une erreur interne.",
		}
	default:
		message := body.Message
		if message == "" {
			message = fmt.Sprintf("Erreur serveur inattendue (%d).", status)
		}
		return &model.IngestFailure{
			Code:    model.FailureUnknown,
			Status:  status,
			Message: message,
		}
	}
}

// mapNetworkFailure classifies transport-level errors. A server that cannot
// be reached at all reads differently to the user than a transfer that broke
// midway, so dial failures get their own message.
func mapNetworkFailure(err error) *model.IngestFailure {
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.IngestFailure{
			Code:    model.FailureTimeout,
			Message: "Serveur injoignable (timeout).",
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &model.IngestFailure{
			Code:    model.FailureNetworkError,
			Message: "Impossible de contacter le serveur LiveChat.",
		}
	}
	return &model.IngestFailure{
		Code:    model.FailureNetworkError,
		Message: "Erreur réseau pendant l’envoi vers LiveChat.",
		Details: err.Error(),
	}
}

func failure(f *model.IngestFailure) IngestResult {
	return IngestResult{Failure: f}
}
