package usecase

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
	orderdto "github.com/lumapay/marketplace-order-service/internal/usecase/dto/order"
)

// GetOrder returns the closed-order view of an order the user participates
// in. A pending order past its expiration is flipped to failed in the
// background; this read still observes the pre-transition status.
func (uc *OrderUsecase) GetOrder(
	ctx context.Context,
	orderID string,
	user *domain.User,
	deviceID string,
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

	uc.checkIfTimedOut(order)

	wallet, err := uc.Wallets.LastUsedWallet(ctx, user.ID, deviceID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domain.UserHasNoWallet(user.ID)
	}

	return uc.orderView(ctx, order, user.ID, wallet.Address)
}

// GetOrderHistory lists the user's closed orders, newest first, filtered and
// cursor-paged by creation date.
func (uc *OrderUsecase) GetOrderHistory(
	ctx context.Context,
	user *domain.User,
	deviceID string,
	filters orderdto.HistoryFilters,
	page orderdto.HistoryPage,
) (*orderdto.OrderList, error) {
	if page.Limit <= 0 {
		page.Limit = uc.HistoryPageSize
	}

	wallet, err := uc.Wallets.LastUsedWallet(ctx, user.ID, deviceID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domain.UserHasNoWallet(user.ID)
	}

	filter := domain.OrderFilter{
		Origin:        filters.Origin,
		OfferID:       filters.OfferID,
		ExcludeStatus: domain.StatusOpened,
		WalletAddress: wallet.Address,
	}
	if before, ok := decodeCursor(page.Before); ok {
		filter.CreatedBefore = before
	}
	if after, ok := decodeCursor(page.After); ok {
		filter.CreatedAfter = after
	}

	orders, err := uc.Repo.GetAll(ctx, filter, page.Limit)
	if err != nil {
		return nil, err
	}

	views := make([]*orderdto.OrderView, 0, len(orders))
	for _, order := range orders {
		uc.checkIfTimedOut(order)

		view, err := uc.orderView(ctx, order, user.ID, wallet.Address)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	list := &orderdto.OrderList{Orders: views}
	if len(orders) > 0 {
		// Orders are newest first: "before" pages further into the past,
		// "after" back toward the present.
		list.Paging.Cursors.Before = encodeCursor(orders[len(orders)-1].CreatedDate)
		list.Paging.Cursors.After = encodeCursor(orders[0].CreatedDate)
	}

	return list, nil
}

func encodeCursor(t time.Time) string {
	return base64.URLEncoding.EncodeToString([]byte(t.Format(time.RFC3339Nano)))
}

func decodeCursor(cursor string) (time.Time, bool) {
	if cursor == "" {
		return time.Time{}, false
	}
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
