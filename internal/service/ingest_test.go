package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"
)

func ingestServiceFor(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*IngestService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := &fakeSettingsStore{settings: &model.Settings{
		APIURL:      server.URL,
		IngestToken: "secret-token",
		GuildID:     "guild",
		AuthorName:  "LiveChat",
	}}
	return NewIngestService(store, timeout), server
}

func TestSendSuccess(t *testing.T) {
	var gotAuth, gotPath string
	svc, _ := ingestServiceFor(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jobId":"42","message":"ingestion lancée"}`))
	}, time.Second)

	result := svc.Send(context.Background(), model.ModeQuick, "https://www.tiktok.com/@user/video/123", "", false)
	if !result.OK {
		t.Fatalf("expected success, got %+v", result.Failure)
	}
	if result.JobID != "42" || result.Message != "ingestion lancée" {
		t.Errorf("unexpected result: %+v", result)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/ingest" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestSendSuccessEmptyBodyDegradesToDefaultMessage(t *testing.T) {
	svc, _ := ingestServiceFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}, time.Second)

	result := svc.Send(context.Background(), model.ModeQuick, "https://www.tiktok.com/@user/video/123", "", false)
	if !result.OK {
		t.Fatalf("expected success, got %+v", result.Failure)
	}
	if result.Message == "" {
		t.Error("expected a default success message")
	}
	if result.JobID != "" {
		t.Errorf("jobId = %q, want empty", result.JobID)
	}
}

func TestSendFailureClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    model.IngestFailureCode
		wantMessage string
	}{
		{
			name:     "401 with unauthorized label",
			status:   401,
			body:     `{"error":"unauthorized"}`,
			wantCode: model.FailureUnauthorized,
		},
		{
			name:        "422 preserves server message",
			status:      422,
			body:        `{"error":"media_ingestion_failed","message":"x"}`,
			wantCode:    model.FailureMediaIngestion,
			wantMessage: "x",
		},
		{
			name:     "400 bare status",
			status:   400,
			wantCode: model.FailureInvalidPayload,
		},
		{
			name:     "label wins over unclassified status",
			status:   418,
			body:     `{"error":"ingest_api_disabled"}`,
			wantCode: model.FailureIngestDisabled,
		},
		{
			name:     "503 disabled",
			status:   503,
			wantCode: model.FailureIngestDisabled,
		},
		{
			name:     "500 server error",
			status:   500,
			wantCode: model.FailureServerError,
		},
		{
			name:     "unclassified status",
			status:   302,
			wantCode: model.FailureUnknown,
		},
		{
			name:     "garbage body does not break classification",
			status:   500,
			body:     `not json at all`,
			wantCode: model.FailureServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := ingestServiceFor(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}, time.Second)

			result := svc.Send(context.Background(), model.ModeCompose, "https://x.com/a/status/1", "hello", true)
			if result.OK {
				t.Fatal("expected failure")
			}
			if result.Failure.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", result.Failure.Code, tt.wantCode)
			}
			if result.Failure.Status != tt.status {
				t.Errorf("status = %d, want %d", result.Failure.Status, tt.status)
			}
			if tt.wantMessage != "" && result.Failure.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", result.Failure.Message, tt.wantMessage)
			}
			if result.Failure.Message == "" {
				t.Error("failure message must never be empty")
			}
		})
	}
}

func TestSendTimeout(t *testing.T) {
	svc, _ := ingestServiceFor(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}, 50*time.Millisecond)

	result := svc.Send(context.Background(), model.ModeQuick, "https://x.com/a/status/1", "", false)
	if result.OK {
		t.Fatal("expected failure")
	}
	if result.Failure.Code != model.FailureTimeout {
		t.Errorf("code = %s, want TIMEOUT", result.Failure.Code)
	}
}

func TestSendUnreachableServer(t *testing.T) {
	svc, server := ingestServiceFor(t, func(w http.ResponseWriter, r *http.Request) {}, time.Second)
	server.Close()

	result := svc.Send(context.Background(), model.ModeQuick, "https://x.com/a/status/1", "", false)
	if result.OK {
		t.Fatal("expected failure")
	}
	if result.Failure.Code != model.FailureNetworkError {
		t.Errorf("code = %s, want NETWORK_ERROR", result.Failure.Code)
	}
	if result.Failure.Message != "Impossible de contacter le serveur LiveChat." {
		t.Errorf("message = %q, want the unreachable-server variant", result.Failure.Message)
	}
}

func TestSendInterruptedTransfer(t *testing.T) {
	svc, _ := ingestServiceFor(t, func(w http.ResponseWriter, r *http.Request) {}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := svc.Send(ctx, model.ModeQuick, "https://x.com/a/status/1", "", false)
	if result.OK {
		t.Fatal("expected failure")
	}
	if result.Failure.Code != model.FailureNetworkError {
		t.Errorf("code = %s, want NETWORK_ERROR", result.Failure.Code)
	}
	if result.Failure.Message != "Erreur réseau pendant l’envoi vers LiveChat." {
		t.Errorf("message = %q, want the generic network variant", result.Failure.Message)
	}
	if result.Failure.Details == "" {
		t.Error("expected the underlying error in details")
	}
}

func TestSendSettingsMissing(t *testing.T) {
	svc := NewIngestService(&fakeSettingsStore{}, time.Second)

	result := svc.Send(context.Background(), model.ModeQuick, "https://x.com/a/status/1", "", false)
	if result.OK {
		t.Fatal("expected failure")
	}
	if result.Failure.Code != model.FailureSettingsMissing {
		t.Errorf("code = %s, want SETTINGS_MISSING", result.Failure.Code)
	}
}

func TestSendInvalidStoredAPIURL(t *testing.T) {
	store := &fakeSettingsStore{settings: &model.Settings{
		APIURL:      "ftp://bot.example.com",
		IngestToken: "secret-token",
		GuildID:     "guild",
	}}
	svc := NewIngestService(store, time.Second)

	result := svc.Send(context.Background(), model.ModeQuick, "https://x.com/a/status/1", "", false)
	if result.OK {
		t.Fatal("expected failure")
	}
	if result.Failure.Code != model.FailureInvalidConfig {
		t.Errorf("code = %s, want INVALID_CONFIG", result.Failure.Code)
	}
}

func TestTestConfig(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{"reachable and authorized", 400, `{"error":"invalid_payload"}`, "success"},
		{"bad token", 401, `{"error":"unauthorized"}`, "error"},
		{"disabled endpoint", 503, `{"error":"ingest_api_disabled"}`, "warning"},
		{"unexpected response", 200, ``, "warning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, server := ingestServiceFor(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}, time.Second)

			result := svc.TestConfig(context.Background(), &model.Settings{
				APIURL:      server.URL,
				IngestToken: "secret-token",
				GuildID:     "guild",
			})
			if result.Level != tt.wantLevel {
				t.Errorf("level = %q, want %q (message: %s)", result.Level, tt.wantLevel, result.Message)
			}
		})
	}
}
