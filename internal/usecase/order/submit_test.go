package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
	orderdto "github.com/lumapay/marketplace-order-service/internal/usecase/dto/order"
)

func openedEarnOrder(orderID string) *domain.Order {
	expiration := time.Now().Add(10 * time.Minute)
	return &domain.Order{
		ID:      orderID,
		OfferID: "offer-1",
		Nonce:   domain.DefaultNonce,
		Amount:  100,
		Status:  domain.StatusOpened,
		Origin:  domain.OriginMarketplace,
		Kind:    domain.KindMarketplace,
		BlockchainData: domain.BlockchainData{
			SenderAddress:    "offer-wallet",
			RecipientAddress: "user-wallet",
		},
		Contexts: []domain.OrderContext{{
			UserID:        "user-1",
			AppID:         "app-1",
			Type:          domain.OfferTypeEarn,
			WalletAddress: "user-wallet",
			Meta:          domain.OrderMeta{Title: "Answer a poll"},
		}},
		ExpirationDate:    &expiration,
		CreatedDate:       time.Now(),
		CurrentStatusDate: time.Now(),
	}
}

func openedSpendOrder(orderID string) *domain.Order {
	order := openedEarnOrder(orderID)
	order.Kind = domain.KindExternal
	order.Origin = domain.OriginExternal
	order.Contexts[0].Type = domain.OfferTypeSpend
	order.BlockchainData = domain.BlockchainData{
		SenderAddress:    "user-wallet",
		RecipientAddress: "app-recipient",
	}
	return order
}

func submitEnv(order *domain.Order) *testEnv {
	env := newTestEnv(order)
	env.catalog.app = &domain.Application{ID: "app-1", Name: "Trivia"}
	env.wallets.wallets["user-1"] = &domain.Wallet{Address: "user-wallet"}
	env.wallets.versions["user-wallet"] = "3"
	return env
}

func TestSubmitOrder_EarnDispatchesPayment(t *testing.T) {
	env := submitEnv(openedEarnOrder("order-1"))

	view, err := env.usecase().SubmitOrder(context.Background(), "order-1", testUser(), "device-1", orderdto.SubmitOrderInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", view.Status)
	}

	payments := env.settlement.callsOf("PayTo")
	if len(payments) != 1 || payments[0].orderID != "order-1" || payments[0].amount != 100 {
		t.Fatalf("expected one payment dispatch, got %+v", payments)
	}
	if len(env.rateLimit.amounts) != 1 || env.rateLimit.amounts[0] != 100 {
		t.Fatalf("rate limit must see the submitted amount, got %v", env.rateLimit.amounts)
	}
}

func TestSubmitOrder_UnknownOrder(t *testing.T) {
	env := submitEnv(openedEarnOrder("order-1"))

	_, err := env.usecase().SubmitOrder(context.Background(), "missing", testUser(), "device-1", orderdto.SubmitOrderInput{})
	if !errors.Is(err, domain.NoSuchOrder("missing")) {
		t.Fatalf("expected NoSuchOrder, got %v", err)
	}
}

func TestSubmitOrder_StrangerCannotSubmit(t *testing.T) {
	env := submitEnv(openedEarnOrder("order-1"))

	stranger := &domain.User{ID: "user-9", AppID: "app-1"}
	_, err := env.usecase().SubmitOrder(context.Background(), "order-1", stranger, "device-1", orderdto.SubmitOrderInput{})
	if !errors.Is(err, domain.NoSuchOrder("order-1")) {
		t.Fatalf("expected NoSuchOrder for non-participant, got %v", err)
	}
}

func TestSubmitOrder_Expired(t *testing.T) {
	order := openedEarnOrder("order-1")
	past := time.Now().Add(-time.Minute)
	order.ExpirationDate = &past
	env := submitEnv(order)

	_, err := env.usecase().SubmitOrder(context.Background(), "order-1", testUser(), "device-1", orderdto.SubmitOrderInput{})
	if !errors.Is(err, domain.OpenOrderExpired("order-1")) {
		t.Fatalf("expected OpenOrderExpired, got %v", err)
	}
}

func TestSubmitOrder_Idempotent(t *testing.T) {
	env := submitEnv(openedEarnOrder("order-1"))
	uc := env.usecase()

	if _, err := uc.SubmitOrder(context.Background(), "order-1", testUser(), "device-1", orderdto.SubmitOrderInput{}); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	view, err := uc.SubmitOrder(context.Background(), "order-1", testUser(), "device-1", orderdto.SubmitOrderInput{})
	if err != nil {
		t.Fatalf("second submission failed: %v", err)
	}
	if view.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", view.Status)
	}

	if payments := env.settlement.callsOf("PayTo"); len(payments) != 1 {
		t.Fatalf("settlement must be dispatched exactly once, got %d", len(payments))
	}
}

func TestSubmitOrder_RateLimited(t *testing.T) {
	env := submitEnv(openedEarnOrder("order-1"))
	env.rateLimit.err = domain.RateLimitExceeded("user-1")

	_, err := env.usecase().SubmitOrder(context.Background(), "order-1", testUser(), "device-1", orderdto.SubmitOrderInput{})
	if !errors.Is(err, domain.RateLimitExceeded("user-1")) {
		t.Fatalf("expected RateLimitExceeded, got %v", err)
	}

	order := env.repo.get("order-1")
	if order.Status != domain.StatusOpened {
		t.Fatalf("rate-limited order must stay opened, got %s", order.Status)
	}
}

func TestSubmitOrder_SpendRequiresTransactionOnVersion3(t *testing.T) {
	env := submitEnv(openedSpendOrder("order-1"))

	_, err := env.usecase().SubmitOrder(context.Background(), "order-1", testUser(), "device-1", orderdto.SubmitOrderInput{})
	if !errors.Is(err, domain.MissingField("transaction")) {
		t.Fatalf("expected MissingField(transaction), got %v", err)
	}
}

func TestSubmitOrder_SpendDispatchesTransaction(t *testing.T) {
	env := submitEnv(openedSpendOrder("order-1"))

	view, err := env.usecase().SubmitOrder(context.Background(), "order-1", testUser(), "device-1",
		orderdto.SubmitOrderInput{Transaction: "deadbeef"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", view.Status)
	}
	if calls := env.settlement.callsOf("SubmitTransaction"); len(calls) != 1 {
		t.Fatalf("expected one transaction submission, got %d", len(calls))
	}
}

func TestSubmitOrder_ConfirmationRightAfterTransitionIsKept(t *testing.T) {
	env := submitEnv(openedEarnOrder("order-1"))
	repriced := int64(40)
	env.content.formAmount = &repriced
	uc := env.usecase()

	// A watch confirmation lands the moment the order goes pending, before
	// the submission writes anything else.
	env.repo.afterStatusUpdate = func(orderID string) {
		env.repo.afterStatusUpdate = nil
		value := &domain.OrderValue{Type: "payment_confirmation", TransactionID: "tx-1"}
		if err := uc.MarkOrderCompleted(context.Background(), orderID, value); err != nil {
			t.Fatalf("confirmation failed: %v", err)
		}
	}

	if _, err := uc.SubmitOrder(context.Background(), "order-1", testUser(), "device-1",
		orderdto.SubmitOrderInput{Form: `{"answer":"yes"}`}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := env.repo.get("order-1")
	if order.Status != domain.StatusCompleted {
		t.Fatalf("confirmation must survive the submission, got %s", order.Status)
	}
	if order.Value == nil || order.Value.TransactionID != "tx-1" {
		t.Fatalf("expected the settlement value, got %+v", order.Value)
	}
	if order.Amount != 40 {
		t.Fatalf("repriced amount must persist, got %d", order.Amount)
	}
}

func TestSubmitOrder_FormRepricesBeforeRateLimit(t *testing.T) {
	env := submitEnv(openedEarnOrder("order-1"))
	repriced := int64(40)
	env.content.formAmount = &repriced

	view, err := env.usecase().SubmitOrder(context.Background(), "order-1", testUser(), "device-1",
		orderdto.SubmitOrderInput{Form: `{"answer":"yes"}`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Amount != 40 {
		t.Fatalf("expected the repriced amount, got %d", view.Amount)
	}
	if env.content.formCalls != 1 {
		t.Fatalf("expected one form submission, got %d", env.content.formCalls)
	}
	if len(env.rateLimit.amounts) != 1 || env.rateLimit.amounts[0] != 40 {
		t.Fatalf("rate limit must see the repriced amount, got %v", env.rateLimit.amounts)
	}
}
