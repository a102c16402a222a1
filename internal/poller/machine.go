package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sokoflow/marketplace/internal/domain"
)

// State is the poller's externally serializable position in the payment
// flow. FAILED and TIMEOUT are dead ends: they require a fresh checkout, not
// a resume.
type State string

const (
	StateIdle       State = "IDLE"
	StateInitiating State = "INITIATING"
	StatePending    State = "PENDING"
	StateSuccessful State = "SUCCESSFUL"
	StateFailed     State = "FAILED"
	StateTimeout    State = "TIMEOUT"
)

// ErrNoSession is returned by Resume when no checkout is in flight.
var ErrNoSession = errors.New("no checkout session to resume")

// Machine drives the payment wait on the client: submit once, persist the
// session, then poll the same reference at a fixed interval with a bounded
// attempt budget. One outstanding query at a time, no overlap.
type Machine struct {
	api         *Client
	store       SessionStore
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
}

func NewMachine(api *Client, store SessionStore, interval time.Duration, maxAttempts int, logger *slog.Logger) *Machine {
	return &Machine{
		api:         api,
		store:       store,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Start runs a fresh checkout. Cash-on-delivery checkouts confirm
// immediately and never enter the polling loop. For mobile money the session
// is persisted before the first poll so a crash at any later point resumes
// instead of re-initiating.
func (m *Machine) Start(ctx context.Context, req CheckoutRequest) (State, *CheckoutResponse, error) {
	m.logger.Info("initiating checkout", "buyer_id", req.BuyerID, "lines", len(req.Lines))

	resp, err := m.api.SubmitCheckout(ctx, req)
	if err != nil {
		// Initiation failed before anything was persisted client-side.
		return StateIdle, nil, err
	}

	if req.PaymentMethod == domain.PaymentMethodCashOnDelivery {
		m.logger.Info("cash checkout confirmed", "orders", len(resp.OrderIDs), "total", resp.TotalAmount)
		return StateSuccessful, resp, nil
	}

	session := &domain.CheckoutSession{
		OrderIDs:      resp.OrderIDs,
		TotalAmount:   resp.TotalAmount,
		ReferenceID:   resp.ReferenceID,
		PaymentMethod: req.PaymentMethod,
		Delivery:      req.Delivery,
		CreatedAt:     time.Now().UTC(),
	}
	if err := m.store.Save(session); err != nil {
		return StatePending, resp, fmt.Errorf("persist checkout session: %w", err)
	}

	state, err := m.poll(ctx, resp.ReferenceID)
	return state, resp, err
}

// Resume re-enters the polling loop from a persisted session. It never calls
// initiation: the session exists precisely because a charge is already in
// flight.
func (m *Machine) Resume(ctx context.Context) (State, error) {
	session, err := m.store.Load()
	if err != nil {
		return StateIdle, fmt.Errorf("load checkout session: %w", err)
	}
	if session == nil {
		return StateIdle, ErrNoSession
	}

	m.logger.Info("resuming payment poll", "reference", session.ReferenceID, "orders", len(session.OrderIDs))
	return m.poll(ctx, session.ReferenceID)
}

// Abandon clears the session and releases the server-side reservation. This
// is the explicit retry action; a buyer who simply walks away leaves the
// attempt to expire at the gateway.
func (m *Machine) Abandon(ctx context.Context) error {
	session, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load checkout session: %w", err)
	}
	if session == nil {
		return ErrNoSession
	}

	if err := m.api.CancelPayment(ctx, session.ReferenceID); err != nil {
		return err
	}
	return m.store.Clear()
}

func (m *Machine) poll(ctx context.Context, reference string) (State, error) {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		status, err := m.api.PaymentStatus(ctx, reference)
		if err != nil {
			m.logger.Error("status poll failed", "error", err, "reference", reference, "attempt", attempt)
		} else {
			switch status {
			case domain.AttemptStatusSuccessful:
				if err := m.store.Clear(); err != nil {
					m.logger.Error("failed to clear session", "error", err)
				}
				m.logger.Info("payment successful", "reference", reference)
				return StateSuccessful, nil

			case domain.AttemptStatusFailed, domain.AttemptStatusRejected:
				m.logger.Info("payment failed", "reference", reference, "status", status)
				return StateFailed, nil

			case domain.AttemptStatusTimeout:
				m.logger.Info("payment timed out at gateway", "reference", reference)
				return StateTimeout, nil
			}
		}

		select {
		case <-ctx.Done():
			return StatePending, ctx.Err()
		case <-time.After(m.interval):
		}
	}

	m.logger.Info("poll attempt budget exhausted", "reference", reference, "attempts", m.maxAttempts)
	return StateTimeout, nil
}
