package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/metrics"
)

// OrderUsecase coordinates the order lifecycle: locked idempotent creation,
// submission to the settlement backend, cancellation, lazy expiration and
// history queries.
type OrderUsecase struct {
	Repo       domain.OrderRepository
	Locker     domain.Locker
	Catalog    domain.Catalog
	Wallets    domain.WalletResolver
	Users      domain.UserDirectory
	Settlement domain.SettlementBackend
	Tokens     domain.TokenValidator
	RateLimit  domain.RateLimiter
	Transfers  domain.TransferIndex
	Content    domain.ContentResolver
	Publisher  domain.OrderEventPublisher
	Metrics    *metrics.OrderMetrics

	OpenOrderTTL        time.Duration
	IncomingTransferTTL time.Duration
	HistoryPageSize     int
}

type Dependencies struct {
	Repo       domain.OrderRepository
	Locker     domain.Locker
	Catalog    domain.Catalog
	Wallets    domain.WalletResolver
	Users      domain.UserDirectory
	Settlement domain.SettlementBackend
	Tokens     domain.TokenValidator
	RateLimit  domain.RateLimiter
	Transfers  domain.TransferIndex
	Content    domain.ContentResolver
	Publisher  domain.OrderEventPublisher
	Metrics    *metrics.OrderMetrics

	OpenOrderTTL        time.Duration
	IncomingTransferTTL time.Duration
	HistoryPageSize     int
}

func NewOrderUsecase(deps Dependencies) *OrderUsecase {
	if deps.OpenOrderTTL == 0 {
		deps.OpenOrderTTL = 10 * time.Minute
	}
	if deps.IncomingTransferTTL == 0 {
		deps.IncomingTransferTTL = 45 * time.Minute
	}
	if deps.HistoryPageSize == 0 {
		deps.HistoryPageSize = 25
	}

	return &OrderUsecase{
		Repo:                deps.Repo,
		Locker:              deps.Locker,
		Catalog:             deps.Catalog,
		Wallets:             deps.Wallets,
		Users:               deps.Users,
		Settlement:          deps.Settlement,
		Tokens:              deps.Tokens,
		RateLimit:           deps.RateLimit,
		Transfers:           deps.Transfers,
		Content:             deps.Content,
		Publisher:           deps.Publisher,
		Metrics:             deps.Metrics,
		OpenOrderTTL:        deps.OpenOrderTTL,
		IncomingTransferTTL: deps.IncomingTransferTTL,
		HistoryPageSize:     deps.HistoryPageSize,
	}
}

// lockKey builds the named lock resource for the creation protocol:
// locks:orders:{get|create}:<ids...>.
func lockKey(operation string, ids ...string) string {
	return "locks:orders:" + operation + ":" + strings.Join(ids, ":")
}

// report publishes an analytics event without blocking or failing the caller.
func (uc *OrderUsecase) report(event domain.OrderEvent) {
	event.Time = time.Now()
	go func() {
		if err := uc.Publisher.PublishOrderEvent(context.Background(), event); err != nil {
			slog.Error("failed to publish order event",
				"type", event.Type, "order_id", event.OrderID, "error", err.Error())
		}
	}()
}

// didExceedCap checks the offer-wide and per-user caps. Failed orders are not
// counted: they released their capacity.
func (uc *OrderUsecase) didExceedCap(ctx context.Context, appOffer *domain.AppOffer, userID string) (bool, error) {
	if appOffer.Cap.Total > 0 {
		total, err := uc.Repo.CountByOffer(ctx, appOffer.Offer.ID)
		if err != nil {
			return false, err
		}
		if total >= appOffer.Cap.Total {
			return true, nil
		}
	}

	if appOffer.Cap.PerUser > 0 {
		forUser, err := uc.Repo.CountByOfferAndUser(ctx, appOffer.Offer.ID, userID)
		if err != nil {
			return false, err
		}
		if forUser >= appOffer.Cap.PerUser {
			return true, nil
		}
	}

	return false, nil
}
