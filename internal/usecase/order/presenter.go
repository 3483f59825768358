package usecase

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/lumapay/marketplace-order-service/internal/domain"
	orderdto "github.com/lumapay/marketplace-order-service/internal/usecase/dto/order"
)

// openOrderView projects a freshly created order into its creation-time
// shape. The projection is a runtime contract: anything but an opened order
// is refused.
func openOrderView(order *domain.Order, userID string) (*orderdto.OpenOrderView, error) {
	if order.Status != domain.StatusOpened {
		return nil, domain.OpenedOrdersOnly()
	}

	viewerContext := order.ContextForUser(userID)
	if viewerContext == nil {
		return nil, domain.NoSuchOrder(order.ID)
	}

	return &orderdto.OpenOrderView{
		ID:             order.ID,
		OfferID:        order.OfferID,
		OfferType:      viewerContext.Type,
		Title:          viewerContext.Meta.Title,
		Description:    viewerContext.Meta.Description,
		Amount:         order.Amount,
		Nonce:          order.Nonce,
		BlockchainData: order.BlockchainData,
		ExpirationDate: *order.ExpirationDate,
	}, nil
}

// orderView projects a non-opened order for a viewer. When the viewer has no
// context of their own (they participate as a counterparty, identified by
// wallet), the wallet-bound context is used with the owning application's
// display metadata substituted in.
func (uc *OrderUsecase) orderView(
	ctx context.Context,
	order *domain.Order,
	userID string,
	walletAddress string,
) (*orderdto.OrderView, error) {
	if order.Status == domain.StatusOpened {
		return nil, domain.OpenedOrdersUnreturnable()
	}

	completionDate := order.CurrentStatusDate
	if completionDate.IsZero() {
		completionDate = order.CreatedDate
	}

	view := &orderdto.OrderView{
		ID:             order.ID,
		OfferID:        order.OfferID,
		Amount:         order.Amount,
		Nonce:          order.Nonce,
		BlockchainData: order.BlockchainData,
		Status:         order.Status,
		Origin:         order.Origin,
		CompletionDate: completionDate,
		Error:          order.Error,
		Result:         order.Value,
	}

	viewerContext := order.ContextForUser(userID)
	if viewerContext != nil {
		view.OfferType = viewerContext.Type
		view.Title = viewerContext.Meta.Title
		view.Description = viewerContext.Meta.Description
		view.Content = viewerContext.Meta.Content
		view.CallToAction = viewerContext.Meta.CallToAction
		return view, nil
	}

	viewerContext = order.ContextForWallet(walletAddress)
	if viewerContext == nil {
		return nil, domain.NoSuchOrder(order.ID)
	}

	app, err := uc.Catalog.GetApp(ctx, viewerContext.AppID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.NoSuchApp(viewerContext.AppID)
	}

	view.OfferType = viewerContext.Type
	view.Content = viewerContext.Meta.Content
	view.CallToAction = viewerContext.Meta.CallToAction
	view.Title = app.Name
	view.Description = "Completed"
	if order.IsMarketplace() {
		contentType, err := uc.Content.ContentTypeOf(ctx, order.OfferID)
		if err == nil && contentType != "" {
			view.Description = capitalizeFirstLetter(contentType)
		}
	}

	return view, nil
}

func capitalizeFirstLetter(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
