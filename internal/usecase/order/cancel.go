package usecase

import (
	"context"
	"log/slog"

	"github.com/lumapay/marketplace-order-service/internal/domain"
)

// CancelOrder removes an opened order. Pending and closed orders can't be
// cancelled; removal itself is best-effort.
func (uc *OrderUsecase) CancelOrder(ctx context.Context, orderID, userID string) error {
	order, err := uc.Repo.GetOne(ctx, domain.OrderFilter{
		OrderID: orderID,
		Status:  domain.StatusOpened,
	})
	if err != nil {
		return err
	}
	if order == nil || order.ContextForUser(userID) == nil {
		return domain.NoSuchOrder(orderID)
	}

	if err := uc.Repo.Remove(ctx, order); err != nil {
		slog.Warn("failed to remove cancelled order", "order_id", orderID, "error", err.Error())
	}

	return nil
}
