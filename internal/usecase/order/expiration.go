package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
)

// checkIfTimedOut reconciles a pending order whose expiration elapsed. The
// flip to failed runs detached so the triggering read never waits on it; the
// read that noticed still observes the pending status.
func (uc *OrderUsecase) checkIfTimedOut(order *domain.Order) {
	if order.Status != domain.StatusPending || !order.IsExpired() {
		return
	}

	failureDate := *order.ExpirationDate
	go uc.setFailedOrder(context.Background(), order, domain.TransactionTimeout(), failureDate)
}

// setFailedOrder moves a pending order to failed. The write is status-guarded
// so a settlement confirmation racing this flip wins. Never surfaced to the
// caller; invoked from detached reconciliation paths only.
func (uc *OrderUsecase) setFailedOrder(ctx context.Context, order *domain.Order, cause *domain.Error, failureDate time.Time) {
	moved, err := uc.Repo.UpdateStatusIf(ctx,
		order.ID, domain.StatusPending, domain.StatusFailed, cause.ToOrderError(), nil, failureDate)
	if err != nil {
		slog.Error("failed to fail timed-out order", "order_id", order.ID, "error", err.Error())
		return
	}
	if !moved {
		return
	}

	appID := ""
	if len(order.Contexts) > 0 {
		appID = order.Contexts[0].AppID
	}
	uc.Metrics.RecordOrderFailed(string(order.Origin), order.FlowType(), appID)
	uc.report(domain.OrderEvent{
		Type:     domain.EventOrderFailed,
		OrderID:  order.ID,
		OfferID:  order.OfferID,
		AppID:    appID,
		Origin:   order.Origin,
		FlowType: order.FlowType(),
		Amount:   order.Amount,
		Status:   domain.StatusFailed,
	})
}

// FailExpiredOrders sweeps pending orders whose expiration elapsed and fails
// them. The lazy read-time flip covers orders that are still being looked at;
// this sweep covers the ones nobody asks about anymore.
func (uc *OrderUsecase) FailExpiredOrders(ctx context.Context) error {
	orders, err := uc.Repo.GetAll(ctx, domain.OrderFilter{
		Status:        domain.StatusPending,
		ExpiredBefore: time.Now(),
	}, 100)
	if err != nil {
		return err
	}

	for _, order := range orders {
		uc.setFailedOrder(ctx, order, domain.TransactionTimeout(), *order.ExpirationDate)
	}

	return nil
}

// MarkOrderCompleted records a settlement confirmation: the pending order
// completes with the settlement outcome, carried in the same guarded write
// as the transition. Confirmations for orders that already failed (or never
// went pending) are refused.
func (uc *OrderUsecase) MarkOrderCompleted(ctx context.Context, orderID string, value *domain.OrderValue) error {
	order, err := uc.Repo.GetOne(ctx, domain.OrderFilter{OrderID: orderID})
	if err != nil {
		return err
	}
	if order == nil {
		return domain.NoSuchOrder(orderID)
	}

	now := time.Now()
	moved, err := uc.Repo.UpdateStatusIf(ctx, order.ID, domain.StatusPending, domain.StatusCompleted, nil, value, now)
	if err != nil {
		return err
	}
	if !moved {
		return domain.ExternalOrderAlreadyCompleted(order.ID, order.Status)
	}

	order.Status = domain.StatusCompleted
	order.CurrentStatusDate = now
	order.Value = value
	order.Error = nil

	appID := ""
	if len(order.Contexts) > 0 {
		appID = order.Contexts[0].AppID
	}
	uc.Metrics.RecordOrderCompleted(appID)
	uc.report(domain.OrderEvent{
		Type:     domain.EventOrderCompleted,
		OrderID:  order.ID,
		OfferID:  order.OfferID,
		AppID:    appID,
		Origin:   order.Origin,
		FlowType: order.FlowType(),
		Amount:   order.Amount,
		Status:   order.Status,
	})

	return nil
}
