package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumapay/marketplace-order-service/internal/domain"
	orderdto "github.com/lumapay/marketplace-order-service/internal/usecase/dto/order"
)

// CreateExternalOrder opens an order described by an application-signed token.
// Lookup by (offer, user, nonce) makes creation idempotent: an existing opened
// order is returned as-is, a pending or completed one refuses recreation, and
// a failed one releases the slot for a fresh order.
func (uc *OrderUsecase) CreateExternalOrder(
	ctx context.Context,
	token string,
	user *domain.User,
	deviceID string,
) (*orderdto.OpenOrderView, error) {
	payload, err := uc.Tokens.ValidateExternalOrderToken(ctx, token, user)
	if err != nil {
		return nil, err
	}

	nonce := payload.Nonce
	if nonce == "" {
		nonce = domain.DefaultNonce
	}

	order, err := uc.Repo.GetOne(ctx, domain.OrderFilter{
		OfferID: payload.Offer.ID,
		UserID:  user.ID,
		Nonce:   nonce,
	})
	if err != nil {
		return nil, err
	}

	switch {
	case order == nil || order.Status == domain.StatusFailed:
		switch {
		case payload.IsPayToUser():
			order, err = uc.newP2PExternalOrder(ctx, user, deviceID, payload, nonce)
		case payload.IsEarn():
			order, err = uc.newEarnExternalOrder(ctx, user, deviceID, payload, nonce)
		default:
			order, err = uc.newSpendExternalOrder(ctx, user, deviceID, payload, nonce)
		}
		if err != nil {
			return nil, err
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

		slog.Info("created new open external order",
			"offer_id", payload.Offer.ID, "user_id", user.ID, "order_id", order.ID)

	case order.Status == domain.StatusPending || order.Status == domain.StatusCompleted:
		slog.Info("order can't be created: existing order is closed or in flight",
			"order_id", order.ID, "offer_id", order.OfferID, "status", order.Status)
		return nil, domain.ExternalOrderAlreadyCompleted(order.ID, order.Status)
	}

	return openOrderView(order, user.ID)
}

func (uc *OrderUsecase) newP2PExternalOrder(
	ctx context.Context,
	sender *domain.User,
	senderDeviceID string,
	payload *domain.ExternalOrderPayload,
	nonce string,
) (*domain.Order, error) {
	senderWallet, err := uc.Wallets.LastUsedWallet(ctx, sender.ID, senderDeviceID)
	if err != nil {
		return nil, err
	}
	if senderWallet == nil {
		return nil, domain.UserHasNoWallet(sender.ID)
	}

	recipient, err := uc.Users.FindUser(ctx, sender.AppID, payload.Recipient.UserID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, domain.NoSuchUser(payload.Recipient.UserID)
	}

	recipientWallet, err := uc.Wallets.LastUsedWallet(ctx, recipient.ID, "")
	if err != nil {
		return nil, err
	}
	if recipientWallet == nil {
		return nil, domain.UserHasNoWallet(recipient.ID)
	}

	senderVersion, err := uc.Wallets.BlockchainVersion(ctx, senderWallet.Address)
	if err != nil {
		return nil, err
	}
	recipientVersion, err := uc.Wallets.BlockchainVersion(ctx, recipientWallet.Address)
	if err != nil {
		return nil, err
	}
	if senderVersion != recipientVersion {
		// Reported as a missing wallet, matching the established API contract.
		slog.Warn("failed p2p creation due to blockchain version mismatch",
			"sender_version", senderVersion, "recipient_version", recipientVersion)
		return nil, domain.UserHasNoWallet(recipient.ID)
	}

	now := time.Now()
	expiration := now.Add(uc.OpenOrderTTL)
	order := &domain.Order{
		ID:      uuid.NewString(),
		OfferID: payload.Offer.ID,
		Nonce:   nonce,
		Amount:  payload.Offer.Amount,
		Status:  domain.StatusOpened,
		Origin:  domain.OriginExternal,
		Kind:    domain.KindExternal,
		BlockchainData: domain.BlockchainData{
			SenderAddress:    senderWallet.Address,
			RecipientAddress: recipientWallet.Address,
		},
		Contexts: []domain.OrderContext{
			{
				UserID:        recipient.ID,
				AppID:         recipient.AppID,
				Type:          domain.OfferTypeEarn,
				WalletAddress: recipientWallet.Address,
				Meta: domain.OrderMeta{
					Title:       payload.Recipient.Title,
					Description: payload.Recipient.Description,
				},
			},
			{
				UserID:        sender.ID,
				AppID:         sender.AppID,
				Type:          domain.OfferTypeSpend,
				WalletAddress: senderWallet.Address,
				Meta: domain.OrderMeta{
					Title:       payload.Sender.Title,
					Description: payload.Sender.Description,
				},
			},
		},
		ExpirationDate:    &expiration,
		CreatedDate:       now,
		CurrentStatusDate: now,
	}

	if err := uc.Settlement.RegisterWatch(ctx, recipientWallet.Address, order.ID, sender.AppID); err != nil {
		return nil, err
	}

	return order, nil
}

func (uc *OrderUsecase) newEarnExternalOrder(
	ctx context.Context,
	recipient *domain.User,
	recipientDeviceID string,
	payload *domain.ExternalOrderPayload,
	nonce string,
) (*domain.Order, error) {
	app, err := uc.Catalog.GetApp(ctx, recipient.AppID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.NoSuchApp(recipient.AppID)
	}

	wallet, err := uc.Wallets.LastUsedWallet(ctx, recipient.ID, recipientDeviceID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domain.UserHasNoWallet(recipient.ID)
	}

	now := time.Now()
	expiration := now.Add(uc.OpenOrderTTL)
	return &domain.Order{
		ID:      uuid.NewString(),
		OfferID: payload.Offer.ID,
		Nonce:   nonce,
		Amount:  payload.Offer.Amount,
		Status:  domain.StatusOpened,
		Origin:  domain.OriginExternal,
		Kind:    domain.KindExternal,
		BlockchainData: domain.BlockchainData{
			SenderAddress:    app.WalletAddresses.Sender,
			RecipientAddress: wallet.Address,
		},
		Contexts: []domain.OrderContext{{
			UserID:        recipient.ID,
			AppID:         recipient.AppID,
			Type:          domain.OfferTypeEarn,
			WalletAddress: wallet.Address,
			Meta: domain.OrderMeta{
				Title:       payload.Recipient.Title,
				Description: payload.Recipient.Description,
			},
		}},
		ExpirationDate:    &expiration,
		CreatedDate:       now,
		CurrentStatusDate: now,
	}, nil
}

func (uc *OrderUsecase) newSpendExternalOrder(
	ctx context.Context,
	sender *domain.User,
	senderDeviceID string,
	payload *domain.ExternalOrderPayload,
	nonce string,
) (*domain.Order, error) {
	app, err := uc.Catalog.GetApp(ctx, sender.AppID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.NoSuchApp(sender.AppID)
	}

	wallet, err := uc.Wallets.LastUsedWallet(ctx, sender.ID, senderDeviceID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domain.UserHasNoWallet(sender.ID)
	}

	now := time.Now()
	expiration := now.Add(uc.OpenOrderTTL)
	order := &domain.Order{
		ID:      uuid.NewString(),
		OfferID: payload.Offer.ID,
		Nonce:   nonce,
		Amount:  payload.Offer.Amount,
		Status:  domain.StatusOpened,
		Origin:  domain.OriginExternal,
		Kind:    domain.KindExternal,
		BlockchainData: domain.BlockchainData{
			SenderAddress:    wallet.Address,
			RecipientAddress: app.WalletAddresses.Recipient,
		},
		Contexts: []domain.OrderContext{{
			UserID:        sender.ID,
			AppID:         sender.AppID,
			Type:          domain.OfferTypeSpend,
			WalletAddress: wallet.Address,
			Meta: domain.OrderMeta{
				Title:       payload.Sender.Title,
				Description: payload.Sender.Description,
			},
		}},
		ExpirationDate:    &expiration,
		CreatedDate:       now,
		CurrentStatusDate: now,
	}

	if err := uc.Settlement.RegisterWatch(ctx, app.WalletAddresses.Recipient, order.ID, app.ID); err != nil {
		return nil, err
	}

	return order, nil
}
