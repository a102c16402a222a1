package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestForwardRequest(t *testing.T) {
	var gotMethod, gotPath, gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		payload, _ := io.ReadAll(r.Body)
		gotBody = string(payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	proxy := NewServiceProxy(server.URL, server.Client())

	inbound := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(`{"buyer_id":"b"}`))
	inbound.Header.Set("Content-Type", "application/json")

	resp, err := proxy.ForwardRequest(context.Background(), inbound, "/checkout")
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if gotMethod != http.MethodPost || gotPath != "/checkout" {
		t.Fatalf("unexpected upstream request: %s %s", gotMethod, gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type not forwarded, got %q", gotContentType)
	}
	if gotBody != `{"buyer_id":"b"}` {
		t.Fatalf("body not forwarded, got %s", gotBody)
	}
}

func TestForwardRequestUnreachable(t *testing.T) {
	proxy := NewServiceProxy("http://127.0.0.1:1", http.DefaultClient)

	inbound := httptest.NewRequest(http.MethodGet, "/items", nil)
	if _, err := proxy.ForwardRequest(context.Background(), inbound, "/items"); err == nil {
		t.Fatal("expected an error for unreachable upstream")
	}
}
