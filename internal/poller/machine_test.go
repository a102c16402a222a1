package poller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sokoflow/marketplace/internal/domain"
)

// fakeAPI is an httptest stand-in for the checkout service: it serves the
// checkout, status and cancel endpoints and counts initiations.
type fakeAPI struct {
	mu          sync.Mutex
	initiations int
	cancels     int
	polls       int
	statuses    []domain.AttemptStatus // consumed in order; last repeats
	server      *httptest.Server
}

func newFakeAPI(statuses ...domain.AttemptStatus) *fakeAPI {
	api := &fakeAPI{statuses: statuses}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /checkout", api.handleCheckout)
	mux.HandleFunc("GET /payments/{referenceId}", api.handleStatus)
	mux.HandleFunc("POST /payments/{referenceId}/cancel", api.handleCancel)
	api.server = httptest.NewServer(mux)
	return api
}

func (a *fakeAPI) handleCheckout(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.initiations++
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(CheckoutResponse{
		OrderIDs:    []string{"order-1", "order-2"},
		TotalAmount: 2500,
		ReferenceID: "ref-test",
	})
}

func (a *fakeAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	status := a.statuses[len(a.statuses)-1]
	if a.polls < len(a.statuses) {
		status = a.statuses[a.polls]
	}
	a.polls++
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]domain.AttemptStatus{"status": status})
}

func (a *fakeAPI) handleCancel(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.cancels++
	a.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
}

func (a *fakeAPI) initiationCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initiations
}

func newTestMachine(t *testing.T, api *fakeAPI) (*Machine, *FileStore) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	client := NewClient(api.server.URL, api.server.Client())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMachine(client, store, time.Millisecond, 5, logger), store
}

func momoCheckout() CheckoutRequest {
	return CheckoutRequest{
		BuyerID:       "buyer-1",
		Lines:         []domain.CheckoutLine{{ItemID: "A", Quantity: 1}},
		Delivery:      domain.DeliveryInfo{Address: "Hostel B", Phone: "0788000001"},
		PaymentMethod: domain.PaymentMethodMobileMoney,
		Phone:         "0788000001",
	}
}

func TestMachine_StartToSuccess(t *testing.T) {
	api := newFakeAPI(domain.AttemptStatusPending, domain.AttemptStatusPending, domain.AttemptStatusSuccessful)
	defer api.server.Close()
	machine, store := newTestMachine(t, api)

	state, resp, err := machine.Start(context.Background(), momoCheckout())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if state != StateSuccessful {
		t.Fatalf("expected SUCCESSFUL, got %s", state)
	}
	if resp.ReferenceID != "ref-test" || len(resp.OrderIDs) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if api.initiationCount() != 1 {
		t.Fatalf("expected 1 initiation, got %d", api.initiationCount())
	}

	session, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if session != nil {
		t.Fatal("expected session cleared after success")
	}
}

func TestMachine_CashSkipsPolling(t *testing.T) {
	api := newFakeAPI(domain.AttemptStatusPending)
	defer api.server.Close()
	machine, store := newTestMachine(t, api)

	req := momoCheckout()
	req.PaymentMethod = domain.PaymentMethodCashOnDelivery
	req.Phone = ""

	state, _, err := machine.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if state != StateSuccessful {
		t.Fatalf("expected SUCCESSFUL, got %s", state)
	}
	if api.polls != 0 {
		t.Fatalf("cash checkout must not poll, got %d polls", api.polls)
	}

	session, _ := store.Load()
	if session != nil {
		t.Fatal("cash checkout must not persist a session")
	}
}

func TestMachine_ResumeDoesNotReinitiate(t *testing.T) {
	api := newFakeAPI(domain.AttemptStatusSuccessful)
	defer api.server.Close()
	machine, store := newTestMachine(t, api)

	// A session left behind by an interrupted run.
	err := store.Save(&domain.CheckoutSession{
		OrderIDs:      []string{"order-1"},
		TotalAmount:   1000,
		ReferenceID:   "ref-test",
		PaymentMethod: domain.PaymentMethodMobileMoney,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	state, err := machine.Resume(context.Background())
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if state != StateSuccessful {
		t.Fatalf("expected SUCCESSFUL, got %s", state)
	}
	if api.initiationCount() != 0 {
		t.Fatalf("resume must never initiate, got %d initiations", api.initiationCount())
	}

	session, _ := store.Load()
	if session != nil {
		t.Fatal("expected session cleared after success")
	}
}

func TestMachine_ResumeWithoutSession(t *testing.T) {
	api := newFakeAPI(domain.AttemptStatusPending)
	defer api.server.Close()
	machine, _ := newTestMachine(t, api)

	_, err := machine.Resume(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestMachine_FailedPaymentKeepsSession(t *testing.T) {
	api := newFakeAPI(domain.AttemptStatusFailed)
	defer api.server.Close()
	machine, store := newTestMachine(t, api)

	state, _, err := machine.Start(context.Background(), momoCheckout())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if state != StateFailed {
		t.Fatalf("expected FAILED, got %s", state)
	}

	// The session survives so the buyer can explicitly abandon or inspect it.
	session, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if session == nil || session.ReferenceID != "ref-test" {
		t.Fatalf("expected session retained, got %+v", session)
	}
}

func TestMachine_BudgetExhaustedIsTimeout(t *testing.T) {
	api := newFakeAPI(domain.AttemptStatusPending)
	defer api.server.Close()
	machine, store := newTestMachine(t, api)

	state, _, err := machine.Start(context.Background(), momoCheckout())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if state != StateTimeout {
		t.Fatalf("expected TIMEOUT, got %s", state)
	}
	if api.polls != 5 {
		t.Fatalf("expected exactly 5 polls, got %d", api.polls)
	}

	session, _ := store.Load()
	if session == nil {
		t.Fatal("expected session retained after timeout")
	}
}

func TestMachine_Abandon(t *testing.T) {
	api := newFakeAPI(domain.AttemptStatusFailed)
	defer api.server.Close()
	machine, store := newTestMachine(t, api)

	if _, _, err := machine.Start(context.Background(), momoCheckout()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := machine.Abandon(context.Background()); err != nil {
		t.Fatalf("abandon failed: %v", err)
	}
	if api.cancels != 1 {
		t.Fatalf("expected 1 cancel call, got %d", api.cancels)
	}

	session, _ := store.Load()
	if session != nil {
		t.Fatal("expected session cleared after abandon")
	}

	if err := machine.Abandon(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession on repeat abandon, got %v", err)
	}
}

func TestMachine_ContextCancellation(t *testing.T) {
	api := newFakeAPI(domain.AttemptStatusPending)
	defer api.server.Close()

	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	client := NewClient(api.server.URL, api.server.Client())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	machine := NewMachine(client, store, time.Minute, 100, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	state, _, err := machine.Start(ctx, momoCheckout())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if state != StatePending {
		t.Fatalf("expected PENDING on interruption, got %s", state)
	}
}
