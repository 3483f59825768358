package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
	orderdto "github.com/lumapay/marketplace-order-service/internal/usecase/dto/order"
)

// SubmitOrder moves an opened order to pending and dispatches it to the
// settlement backend. Submitting an order that already left the opened state
// is idempotent: the current projection is returned and nothing is dispatched
// again. The opened->pending transition itself is a status-guarded write, so
// concurrent submissions of one order settle exactly once.
func (uc *OrderUsecase) SubmitOrder(
	ctx context.Context,
	orderID string,
	user *domain.User,
	deviceID string,
	input orderdto.SubmitOrderInput,
) (*orderdto.OrderView, error) {
	order, err := uc.Repo.GetOne(ctx, domain.OrderFilter{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	if order == nil || order.ContextForUser(user.ID) == nil {
		return nil, domain.NoSuchOrder(orderID)
	}

	viewerContext := order.ContextForUser(user.ID)
	walletAddress := viewerContext.WalletAddress

	if order.Status != domain.StatusOpened {
		return uc.orderView(ctx, order, user.ID, walletAddress)
	}
	if order.IsExpired() {
		return nil, domain.OpenOrderExpired(orderID)
	}

	originalAmount := order.Amount
	if order.IsMarketplace() {
		// May mutate order.Amount for form-driven offers.
		if err := uc.Content.SubmitForm(ctx, order, input.Form); err != nil {
			return nil, err
		}
	}

	app, err := uc.Catalog.GetApp(ctx, viewerContext.AppID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.NoSuchApp(viewerContext.AppID)
	}

	blockchainVersion := app.BlockchainVersion
	if blockchainVersion != "3" {
		blockchainVersion, err = uc.Wallets.BlockchainVersion(ctx, walletAddress)
		if err != nil {
			return nil, err
		}
	}

	if order.IsEarn() {
		// After form submission: the rate limit applies to the final amount.
		if err := uc.RateLimit.AssertEarnLimit(ctx, user.ID, walletAddress, order.Amount); err != nil {
			return nil, err
		}
	} else if blockchainVersion == "3" && input.Transaction == "" {
		return nil, domain.MissingField("transaction")
	}

	now := time.Now()
	moved, err := uc.Repo.UpdateStatusIf(ctx, order.ID, domain.StatusOpened, domain.StatusPending, nil, nil, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Lost the race against a concurrent submission; return its outcome.
		current, err := uc.Repo.GetOne(ctx, domain.OrderFilter{OrderID: orderID})
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, domain.NoSuchOrder(orderID)
		}
		return uc.orderView(ctx, current, user.ID, walletAddress)
	}

	order.Status = domain.StatusPending
	order.CurrentStatusDate = now
	if order.Amount != originalAmount {
		// Amount only; a confirmation landing right after the transition must
		// not be rewound by a full-row write.
		if err := uc.Repo.UpdateAmount(ctx, order.ID, order.Amount); err != nil {
			slog.Error("failed to persist repriced amount", "order_id", order.ID, "error", err.Error())
		}
	}
	slog.Info("order changed to pending", "order_id", orderID)

	uc.dispatch(ctx, order, user, deviceID, blockchainVersion, input.Transaction)

	uc.Metrics.RecordOrderSubmitted(string(order.Origin), order.FlowType(), user.AppID, blockchainVersion)
	uc.report(domain.OrderEvent{
		Type:     domain.EventOrderSubmitted,
		OrderID:  order.ID,
		OfferID:  order.OfferID,
		UserID:   user.ID,
		DeviceID: deviceID,
		AppID:    user.AppID,
		Origin:   order.Origin,
		FlowType: order.FlowType(),
		Amount:   order.Amount,
		Status:   order.Status,
	})

	return uc.orderView(ctx, order, user.ID, walletAddress)
}

// dispatch hands the pending order to the settlement backend. Failures are
// logged and swallowed: the committed transition is never rolled back and the
// lazy expiration path reconciles orders whose dispatch was lost.
func (uc *OrderUsecase) dispatch(
	ctx context.Context,
	order *domain.Order,
	user *domain.User,
	deviceID string,
	blockchainVersion string,
	transaction string,
) {
	if order.IsEarn() {
		err := uc.Settlement.PayTo(ctx,
			order.BlockchainData.RecipientAddress, user.AppID, order.Amount, order.ID, blockchainVersion)
		if err != nil {
			slog.Error("earn settlement dispatch failed", "order_id", order.ID, "error", err.Error())
			return
		}
		uc.report(domain.OrderEvent{
			Type:     domain.EventEarnBroadcastSubmitted,
			OrderID:  order.ID,
			OfferID:  order.OfferID,
			UserID:   user.ID,
			DeviceID: deviceID,
			AppID:    user.AppID,
			Origin:   order.Origin,
			FlowType: order.FlowType(),
			Amount:   order.Amount,
			Status:   order.Status,
		})
		return
	}

	// Spend orders carry an explicit transaction payload only on backend
	// versions that require one; without it the watch endpoint drives progress.
	if transaction == "" {
		return
	}

	err := uc.Settlement.SubmitTransaction(ctx,
		order.BlockchainData.RecipientAddress, order.BlockchainData.SenderAddress,
		user.AppID, order.Amount, order.ID, transaction)
	if err != nil {
		slog.Error("spend settlement dispatch failed", "order_id", order.ID, "error", err.Error())
		return
	}
	uc.report(domain.OrderEvent{
		Type:     domain.EventSpendBroadcastSubmitted,
		OrderID:  order.ID,
		OfferID:  order.OfferID,
		UserID:   user.ID,
		DeviceID: deviceID,
		AppID:    user.AppID,
		Origin:   order.Origin,
		FlowType: order.FlowType(),
		Amount:   order.Amount,
		Status:   order.Status,
	})
}
