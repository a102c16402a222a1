package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sokoflow/marketplace/internal/domain"
)

func TestClientInitiate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got initiateRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/collections" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(initiateResponse{ReferenceID: "ref-123"})
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client())
		reference, err := client.Initiate(context.Background(), "0788000001", 2500, map[string]string{"buyer_id": "buyer-1"})
		if err != nil {
			t.Fatalf("initiate failed: %v", err)
		}
		if reference != "ref-123" {
			t.Fatalf("expected ref-123, got %s", reference)
		}
		if got.Phone != "0788000001" || got.Amount != 2500 {
			t.Fatalf("unexpected request payload: %+v", got)
		}
	})

	t.Run("processor error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client())
		_, err := client.Initiate(context.Background(), "0788000001", 2500, nil)
		if err == nil {
			t.Fatal("expected an error")
		}
		if !strings.Contains(err.Error(), "503") {
			t.Fatalf("expected status in error, got %v", err)
		}
	})

	t.Run("empty reference", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(initiateResponse{})
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client())
		_, err := client.Initiate(context.Background(), "0788000001", 2500, nil)
		if err == nil {
			t.Fatal("expected an error for empty reference")
		}
	})
}

func TestClientPollStatus(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/collections/ref-123" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(statusResponse{Status: domain.AttemptStatusSuccessful})
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client())
		status, err := client.PollStatus(context.Background(), "ref-123")
		if err != nil {
			t.Fatalf("poll failed: %v", err)
		}
		if status != domain.AttemptStatusSuccessful {
			t.Fatalf("expected SUCCESSFUL, got %s", status)
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client())
		_, err := client.PollStatus(context.Background(), "no-such-ref")
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}
