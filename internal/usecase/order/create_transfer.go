package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumapay/marketplace-order-service/internal/domain"
	orderdto "github.com/lumapay/marketplace-order-service/internal/usecase/dto/order"
)

func crossAppOfferID(senderAppID, recipientAppID string) string {
	return fmt.Sprintf("cross-app_%s_to_%s", senderAppID, recipientAppID)
}

// CreateOutgoingTransferOrder opens the sender-side order of a cross-app
// transfer. The memo travels with the settlement transaction and is what the
// receiving side correlates on.
func (uc *OrderUsecase) CreateOutgoingTransferOrder(
	ctx context.Context,
	recipientWalletAddress string,
	recipientAppID string,
	title, description, memo string,
	amount int64,
	sender *domain.User,
	senderDeviceID string,
) (*orderdto.OpenOrderView, error) {
	slog.Info("creating an outgoing transfer order", "sender_app", sender.AppID, "recipient_app", recipientAppID)

	senderWallet, err := uc.Wallets.LastUsedWallet(ctx, sender.ID, senderDeviceID)
	if err != nil {
		return nil, err
	}
	if senderWallet == nil {
		return nil, domain.UserHasNoWallet(sender.ID)
	}

	now := time.Now()
	expiration := now.Add(uc.OpenOrderTTL)
	order := &domain.Order{
		ID:      uuid.NewString(),
		OfferID: crossAppOfferID(sender.AppID, recipientAppID),
		Nonce:   domain.DefaultNonce,
		Amount:  amount,
		Status:  domain.StatusOpened,
		Origin:  domain.OriginExternal,
		Kind:    domain.KindOutgoingTransfer,
		BlockchainData: domain.BlockchainData{
			SenderAddress:    senderWallet.Address,
			RecipientAddress: recipientWalletAddress,
			Memo:             memo,
		},
		Contexts: []domain.OrderContext{{
			UserID:        sender.ID,
			AppID:         sender.AppID,
			Type:          domain.OfferTypeSpend,
			WalletAddress: senderWallet.Address,
			Meta:          domain.OrderMeta{Title: title, Description: description},
		}},
		ExpirationDate:    &expiration,
		CreatedDate:       now,
		CurrentStatusDate: now,
	}

	if err := uc.Repo.Save(ctx, order); err != nil {
		return nil, err
	}

	uc.Metrics.RecordOrderCreated(string(order.Origin), order.FlowType(), sender.AppID)
	slog.Info("created an outgoing transfer order", "order_id", order.ID)

	return openOrderView(order, sender.ID)
}

// CreateIncomingTransferOrder opens the receiver-side order of a cross-app
// transfer. The order starts pending with a zero amount: the amount arrives
// with the watched settlement transaction, correlated back to this order
// through the memo-derived transfer index entry.
func (uc *OrderUsecase) CreateIncomingTransferOrder(
	ctx context.Context,
	title, description, memo string,
	senderWalletAddress string,
	senderAppID string,
	receiver *domain.User,
	receiverDeviceID string,
) (*orderdto.OrderView, error) {
	slog.Info("creating an incoming transfer order", "sender_app", senderAppID, "recipient_app", receiver.AppID)

	receiverWallet, err := uc.Wallets.LastUsedWallet(ctx, receiver.ID, receiverDeviceID)
	if err != nil {
		return nil, err
	}
	if receiverWallet == nil {
		return nil, domain.UserHasNoWallet(receiver.ID)
	}

	parsedMemo, err := parseMemo(memo)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiration := now.Add(uc.IncomingTransferTTL)
	order := &domain.Order{
		ID:      uuid.NewString(),
		OfferID: crossAppOfferID(senderAppID, receiver.AppID),
		Nonce:   domain.DefaultNonce,
		Amount:  0, // populated by the watched transfer
		Status:  domain.StatusPending,
		Origin:  domain.OriginExternal,
		Kind:    domain.KindIncomingTransfer,
		BlockchainData: domain.BlockchainData{
			SenderAddress:    senderWalletAddress,
			RecipientAddress: receiverWallet.Address,
			Memo:             memo,
		},
		Contexts: []domain.OrderContext{{
			UserID:        receiver.ID,
			AppID:         receiver.AppID,
			Type:          domain.OfferTypeEarn,
			WalletAddress: receiverWallet.Address,
			Meta:          domain.OrderMeta{Title: title, Description: description},
		}},
		ExpirationDate:    &expiration,
		CreatedDate:       now,
		CurrentStatusDate: now,
	}

	if err := uc.Repo.Save(ctx, order); err != nil {
		return nil, err
	}

	// Index the memo's order id so the watch callback can find this order.
	if err := uc.Transfers.Put(ctx, parsedMemo.OrderID, order.ID); err != nil {
		return nil, err
	}

	if err := uc.Settlement.RegisterWatch(ctx, receiverWallet.Address, parsedMemo.OrderID, receiver.AppID); err != nil {
		return nil, err
	}

	uc.Metrics.RecordOrderCreated(string(order.Origin), order.FlowType(), receiver.AppID)
	slog.Info("created an incoming transfer order", "order_id", order.ID, "memo", memo)

	return uc.orderView(ctx, order, receiver.ID, receiverWallet.Address)
}

// CompleteIncomingTransfer resolves a watch notification for a cross-app
// transfer: the memo-derived transfer order id is mapped back to the local
// incoming order, which completes with the observed amount.
func (uc *OrderUsecase) CompleteIncomingTransfer(
	ctx context.Context,
	transferOrderID string,
	amount int64,
	transactionID string,
) error {
	orderID, err := uc.Transfers.Get(ctx, transferOrderID)
	if err != nil {
		return err
	}
	if orderID == "" {
		return domain.NoSuchOrder(transferOrderID)
	}

	order, err := uc.Repo.GetOne(ctx, domain.OrderFilter{OrderID: orderID})
	if err != nil {
		return err
	}
	if order == nil {
		return domain.NoSuchOrder(orderID)
	}

	if err := uc.Repo.UpdateAmount(ctx, order.ID, amount); err != nil {
		return err
	}

	return uc.MarkOrderCompleted(ctx, orderID, &domain.OrderValue{
		Type:          "payment_confirmation",
		TransactionID: transactionID,
	})
}
