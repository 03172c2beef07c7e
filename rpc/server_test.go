package rpc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tailored-agentic-units/seabird/hub"
	"github.com/tailored-agentic-units/seabird/rpc"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := hub.DefaultConfig()
	cfg.Tokens = map[string]string{"token-1": "plugin-one"}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	h := hub.New(context.Background(), cfg)
	t.Cleanup(h.Shutdown)

	server := httptest.NewServer(rpc.NewServer(h, cfg.Logger).Handler())
	t.Cleanup(server.Close)
	return server
}

// call performs one unary procedure over plain HTTP/1.1 JSON, the way a
// connect client without streaming does.
func call(t *testing.T, server *httptest.Server, procedure, token string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, server.URL+procedure, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("call %s: %v", procedure, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGetCoreInfo(t *testing.T) {
	server := newTestServer(t)

	resp := call(t, server, rpc.GetCoreInfoProcedure, "token-1", struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var info struct {
		StartupTimestamp int64 `json:"startup_timestamp"`
		CurrentTimestamp int64 `json:"current_timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.StartupTimestamp == 0 {
		t.Error("StartupTimestamp = 0, want startup time")
	}
	if info.CurrentTimestamp < info.StartupTimestamp {
		t.Errorf("CurrentTimestamp = %d before StartupTimestamp = %d",
			info.CurrentTimestamp, info.StartupTimestamp)
	}
}

func TestAuthentication(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "unknown token", token: "wrong-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, server, rpc.ListBackendsProcedure, tt.token, struct{}{})
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}

			var body struct {
				Code string `json:"code"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != "unauthenticated" {
				t.Errorf("error code = %q, want %q", body.Code, "unauthenticated")
			}
		})
	}
}

func TestListBackends_Empty(t *testing.T) {
	server := newTestServer(t)

	resp := call(t, server, rpc.ListBackendsProcedure, "token-1", struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Backends []json.RawMessage `json:"backends"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Backends) != 0 {
		t.Errorf("backends = %v, want none", body.Backends)
	}
}
