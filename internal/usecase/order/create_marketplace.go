package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumapay/marketplace-order-service/internal/domain"
	orderdto "github.com/lumapay/marketplace-order-service/internal/usecase/dto/order"
)

// CreateMarketplaceOrder opens an order for a catalog offer, or returns the
// already-open order for this (offer, user) pair. Two nested locks guard
// creation: the outer lock serializes requests of one user for the offer so
// concurrent callers observe the same order; the inner lock serializes
// creation across all users so cap accounting stays exact.
func (uc *OrderUsecase) CreateMarketplaceOrder(
	ctx context.Context,
	offerID string,
	user *domain.User,
	deviceID string,
	translations *orderdto.Translations,
) (*orderdto.OpenOrderView, error) {
	slog.Info("creating marketplace order", "offer_id", offerID, "user_id", user.ID)

	offer, err := uc.Catalog.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, domain.NoSuchOffer(offerID)
	}

	appOffers, err := uc.Catalog.GetAppOffers(ctx, user.AppID, offer.Type)
	if err != nil {
		return nil, err
	}
	var appOffer *domain.AppOffer
	for _, candidate := range appOffers {
		if candidate.Offer.ID == offerID {
			appOffer = candidate
			break
		}
	}
	if appOffer == nil {
		return nil, domain.NoSuchOffer(offerID)
	}

	var order *domain.Order
	err = uc.Locker.WithLock(ctx, lockKey("get", offerID, user.ID), func(ctx context.Context) error {
		existing, err := uc.Repo.GetOpenOrder(ctx, offerID, user.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			order = existing
			return nil
		}

		return uc.Locker.WithLock(ctx, lockKey("create", offerID), func(ctx context.Context) error {
			created, err := uc.newMarketplaceOrder(ctx, appOffer, user, deviceID, translations)
			if err != nil {
				return err
			}
			order = created
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// nil without error means the cap check refused creation.
	if order == nil {
		return nil, domain.OfferCapReached(offerID)
	}

	slog.Info("created new open marketplace order", "order_id", order.ID, "offer_id", offerID, "user_id", user.ID)

	return openOrderView(order, user.ID)
}

func (uc *OrderUsecase) newMarketplaceOrder(
	ctx context.Context,
	appOffer *domain.AppOffer,
	user *domain.User,
	deviceID string,
	translations *orderdto.Translations,
) (*domain.Order, error) {
	wallet, err := uc.Wallets.LastUsedWallet(ctx, user.ID, deviceID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domain.UserHasNoWallet(user.ID)
	}

	exceeded, err := uc.didExceedCap(ctx, appOffer, user.ID)
	if err != nil {
		return nil, err
	}
	if exceeded {
		return nil, nil
	}

	meta := appOffer.Offer.OrderMeta
	if translations != nil {
		if translations.OrderTitle != "" {
			meta.Title = translations.OrderTitle
		}
		if translations.OrderDescription != "" {
			meta.Description = translations.OrderDescription
		}
	}

	recipientAddress := wallet.Address
	senderAddress := appOffer.WalletAddress
	if appOffer.Offer.Type == domain.OfferTypeSpend {
		recipientAddress = appOffer.WalletAddress
		senderAddress = wallet.Address
	}

	now := time.Now()
	expiration := now.Add(uc.OpenOrderTTL)
	order := &domain.Order{
		ID:      uuid.NewString(),
		OfferID: appOffer.Offer.ID,
		Nonce:   domain.DefaultNonce,
		Amount:  appOffer.Offer.Amount,
		Status:  domain.StatusOpened,
		Origin:  domain.OriginMarketplace,
		Kind:    domain.KindMarketplace,
		BlockchainData: domain.BlockchainData{
			SenderAddress:    senderAddress,
			RecipientAddress: recipientAddress,
		},
		Contexts: []domain.OrderContext{{
			UserID:        user.ID,
			AppID:         user.AppID,
			Type:          appOffer.Offer.Type,
			WalletAddress: wallet.Address,
			Meta:          meta,
		}},
		ExpirationDate:    &expiration,
		CreatedDate:       now,
		CurrentStatusDate: now,
	}

	if err := uc.Repo.Save(ctx, order); err != nil {
		return nil, err
	}

	uc.Metrics.RecordOrderCreated(string(order.Origin), order.FlowType(), user.AppID)
	uc.report(domain.OrderEvent{
		Type:     domain.EventOrderCreated,
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

	return order, nil
}
