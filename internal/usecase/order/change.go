package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
	orderdto "github.com/lumapay/marketplace-order-service/internal/usecase/dto/order"
)

// ChangeOrder patches a closed order with a client-reported failure. The only
// transition reachable through this path is to failed, and completed orders
// refuse it.
func (uc *OrderUsecase) ChangeOrder(
	ctx context.Context,
	orderID string,
	user *domain.User,
	deviceID string,
	change orderdto.OrderChange,
) (*orderdto.OrderView, error) {
	order, err := uc.Repo.GetOne(ctx, domain.OrderFilter{
		OrderID:       orderID,
		ExcludeStatus: domain.StatusOpened,
	})
	if err != nil {
		return nil, err
	}
	if order == nil || order.ContextForUser(user.ID) == nil {
		return nil, domain.NoSuchOrder(orderID)
	}
	if order.Status == domain.StatusCompleted {
		return nil, domain.CompletedOrderCantTransitionToFailed()
	}

	now := time.Now()
	moved, err := uc.Repo.UpdateStatusIf(ctx, order.ID, order.Status, domain.StatusFailed, change.Error, nil, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		// The order completed between the read and the write.
		return nil, domain.CompletedOrderCantTransitionToFailed()
	}

	order.Error = change.Error
	order.Status = domain.StatusFailed
	order.CurrentStatusDate = now

	uc.Metrics.RecordOrderFailed(string(order.Origin), order.FlowType(), user.AppID)
	uc.report(domain.OrderEvent{
		Type:     domain.EventOrderFailed,
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

	wallet, err := uc.Wallets.LastUsedWallet(ctx, user.ID, deviceID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domain.UserHasNoWallet(user.ID)
	}

	slog.Debug("order patched with error", "order_id", orderID)
	return uc.orderView(ctx, order, user.ID, wallet.Address)
}
