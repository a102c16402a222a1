package momo

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sokoflow/marketplace/internal/domain"
)

func newTestServer(t *testing.T, settleAfter int, rejectSuffix string) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(settleAfter, rejectSuffix, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /collections", handler.HandleCreateCollection)
	mux.HandleFunc("GET /collections/{referenceId}", handler.HandleGetCollection)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func createCollection(t *testing.T, server *httptest.Server, phone string, amount int64) string {
	t.Helper()
	payload, _ := json.Marshal(map[string]any{"phone": phone, "amount": amount})
	resp, err := http.Post(server.URL+"/collections", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("create collection failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var body struct {
		ReferenceID string `json:"reference_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ReferenceID == "" {
		t.Fatal("expected a reference id")
	}
	return body.ReferenceID
}

func pollCollection(t *testing.T, server *httptest.Server, reference string) domain.AttemptStatus {
	t.Helper()
	resp, err := http.Get(server.URL + "/collections/" + reference)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Status domain.AttemptStatus `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	return body.Status
}

func TestCollectionSettlesAfterPolls(t *testing.T) {
	server := newTestServer(t, 2, "99")
	reference := createCollection(t, server, "0788000001", 2500)

	if status := pollCollection(t, server, reference); status != domain.AttemptStatusPending {
		t.Fatalf("expected PENDING on first poll, got %s", status)
	}
	if status := pollCollection(t, server, reference); status != domain.AttemptStatusSuccessful {
		t.Fatalf("expected SUCCESSFUL on second poll, got %s", status)
	}

	// Terminal status is sticky.
	if status := pollCollection(t, server, reference); status != domain.AttemptStatusSuccessful {
		t.Fatalf("expected SUCCESSFUL to stick, got %s", status)
	}
}

func TestRejectSuffixFailsCharge(t *testing.T) {
	server := newTestServer(t, 1, "99")
	reference := createCollection(t, server, "0788000099", 1000)

	if status := pollCollection(t, server, reference); status != domain.AttemptStatusFailed {
		t.Fatalf("expected FAILED for reject suffix, got %s", status)
	}
}

func TestCreateCollectionValidation(t *testing.T) {
	server := newTestServer(t, 1, "")

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", "{"},
		{"missing phone", `{"amount": 100}`},
		{"non-positive amount", `{"phone": "0788000001", "amount": 0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/collections", "application/json", bytes.NewBufferString(tc.body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestUnknownCollection(t *testing.T) {
	server := newTestServer(t, 1, "")

	resp, err := http.Get(server.URL + "/collections/no-such-ref")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
