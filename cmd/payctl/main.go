package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sokoflow/marketplace/internal/config"
	"github.com/sokoflow/marketplace/internal/domain"
	"github.com/sokoflow/marketplace/internal/poller"
)

// payctl is the buyer-side client for the checkout pipeline. It submits a
// checkout, then waits out the mobile-money confirmation with a persisted
// session, so an interrupted wait can be resumed with `payctl resume`.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var (
		buyerID = flag.String("buyer", "", "buyer identifier")
		phone   = flag.String("phone", "", "mobile money phone number")
		method  = flag.String("method", string(domain.PaymentMethodMobileMoney), "payment method: mobile_money or cash_on_delivery")
		lines   = flag.String("lines", "", "cart lines as item:qty[,item:qty...]")
		address = flag.String("address", "", "delivery address")
		notes   = flag.String("notes", "", "delivery notes")
	)
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		logger.Error("usage: payctl [flags] <submit|resume|abandon>")
		os.Exit(1)
	}

	cfg, err := config.Load("payctl", "")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sessionPath := cfg.SessionPath
	if sessionPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to resolve home directory", "error", err)
			os.Exit(1)
		}
		sessionPath = filepath.Join(home, ".sokoflow", "session.json")
	}

	api := poller.NewClient(cfg.CheckoutServiceURL, &http.Client{Timeout: 10 * time.Second})
	store := poller.NewFileStore(sessionPath)
	machine := poller.NewMachine(api, store,
		time.Duration(cfg.PollIntervalSeconds)*time.Second,
		cfg.PollMaxAttempts,
		logger,
	)

	ctx := context.Background()

	switch args[0] {
	case "submit":
		req, err := buildRequest(*buyerID, *phone, *method, *lines, *address, *notes)
		if err != nil {
			logger.Error("invalid arguments", "error", err)
			os.Exit(1)
		}

		state, resp, err := machine.Start(ctx, *req)
		if err != nil {
			logger.Error("checkout failed", "error", err, "state", state)
			os.Exit(1)
		}
		fmt.Printf("state: %s\norders: %s\ntotal: %d\n", state, strings.Join(resp.OrderIDs, ","), resp.TotalAmount)
		if state != poller.StateSuccessful {
			os.Exit(1)
		}

	case "resume":
		state, err := machine.Resume(ctx)
		if err != nil {
			if errors.Is(err, poller.ErrNoSession) {
				fmt.Println("no checkout in flight")
				return
			}
			logger.Error("resume failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("state: %s\n", state)
		if state != poller.StateSuccessful {
			os.Exit(1)
		}

	case "abandon":
		if err := machine.Abandon(ctx); err != nil {
			if errors.Is(err, poller.ErrNoSession) {
				fmt.Println("no checkout in flight")
				return
			}
			logger.Error("abandon failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("checkout abandoned, stock released")

	default:
		logger.Error("unknown command", "command", args[0])
		os.Exit(1)
	}
}

func buildRequest(buyerID, phone, method, lines, address, notes string) (*poller.CheckoutRequest, error) {
	if buyerID == "" || lines == "" {
		return nil, errors.New("-buyer and -lines are required")
	}

	var cart []domain.CheckoutLine
	for _, part := range strings.Split(lines, ",") {
		itemID, qtyStr, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("malformed line %q, want item:qty", part)
		}
		qty, err := strconv.Atoi(qtyStr)
		if err != nil {
			return nil, fmt.Errorf("malformed quantity in %q: %w", part, err)
		}
		cart = append(cart, domain.CheckoutLine{ItemID: itemID, Quantity: qty})
	}

	paymentMethod := domain.PaymentMethod(method)
	if paymentMethod == domain.PaymentMethodMobileMoney && phone == "" {
		return nil, errors.New("-phone is required for mobile money")
	}

	return &poller.CheckoutRequest{
		BuyerID:       buyerID,
		Lines:         cart,
		Delivery:      domain.DeliveryInfo{Address: address, Phone: phone, Notes: notes},
		PaymentMethod: paymentMethod,
		Phone:         phone,
	}, nil
}
