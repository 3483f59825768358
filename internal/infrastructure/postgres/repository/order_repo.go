package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/postgres/mappers"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

// applyFilter translates an order filter into query conditions. User and
// wallet conditions go through the context table since orders carry per-user
// contexts rather than a single owner column.
func applyFilter(query *gorm.DB, filter domain.OrderFilter) *gorm.DB {
	if filter.OrderID != "" {
		query = query.Where("order_models.id = ?", filter.OrderID)
	}
	if filter.OfferID != "" {
		query = query.Where("order_models.offer_id = ?", filter.OfferID)
	}
	if filter.Nonce != "" {
		query = query.Where("order_models.nonce = ?", filter.Nonce)
	}
	if filter.Status != "" {
		query = query.Where("order_models.status = ?", filter.Status)
	}
	if filter.ExcludeStatus != "" {
		query = query.Where("order_models.status <> ?", filter.ExcludeStatus)
	}
	if filter.Origin != "" {
		query = query.Where("order_models.origin = ?", filter.Origin)
	}
	if !filter.ExpiredBefore.IsZero() {
		query = query.Where("order_models.expiration_date IS NOT NULL AND order_models.expiration_date < ?", filter.ExpiredBefore)
	}
	if !filter.CreatedBefore.IsZero() {
		query = query.Where("order_models.created_date < ?", filter.CreatedBefore)
	}
	if !filter.CreatedAfter.IsZero() {
		query = query.Where("order_models.created_date > ?", filter.CreatedAfter)
	}

	if filter.UserID != "" || filter.WalletAddress != "" {
		query = query.Joins("JOIN order_context_models ON order_context_models.order_id = order_models.id")
		if filter.UserID != "" {
			query = query.Where("order_context_models.user_id = ?", filter.UserID)
		}
		if filter.WalletAddress != "" {
			query = query.Where("order_context_models.wallet_address = ?", filter.WalletAddress)
		}
	}

	return query
}

func (r *DefaultOrderRepository) GetOne(ctx context.Context, filter domain.OrderFilter) (*domain.Order, error) {
	var orderModel models.OrderModel
	query := applyFilter(r.DB.WithContext(ctx).Model(&models.OrderModel{}), filter)
	err := query.Preload("Contexts").
		Order("order_models.created_date DESC").
		First(&orderModel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return mappers.ToOrderDomain(&orderModel), nil
}

func (r *DefaultOrderRepository) GetOpenOrder(ctx context.Context, offerID, userID string) (*domain.Order, error) {
	return r.GetOne(ctx, domain.OrderFilter{
		OfferID: offerID,
		UserID:  userID,
		Status:  domain.StatusOpened,
	})
}

func (r *DefaultOrderRepository) GetAll(ctx context.Context, filter domain.OrderFilter, limit int) ([]*domain.Order, error) {
	var orderModels []models.OrderModel
	query := applyFilter(r.DB.WithContext(ctx).Model(&models.OrderModel{}), filter)
	err := query.Preload("Contexts").
		Order("order_models.created_date DESC").
		Limit(limit).
		Find(&orderModels).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(orderModels))
	for i := range orderModels {
		orders = append(orders, mappers.ToOrderDomain(&orderModels[i]))
	}
	return orders, nil
}

// CountByOffer counts orders that hold or may still consume offer capacity.
// Failed orders release their slot.
func (r *DefaultOrderRepository) CountByOffer(ctx context.Context, offerID string) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).Model(&models.OrderModel{}).
		Where("offer_id = ? AND status <> ?", offerID, domain.StatusFailed).
		Count(&total).Error
	return total, err
}

func (r *DefaultOrderRepository) CountByOfferAndUser(ctx context.Context, offerID, userID string) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).Model(&models.OrderModel{}).
		Joins("JOIN order_context_models ON order_context_models.order_id = order_models.id").
		Where("order_models.offer_id = ? AND order_models.status <> ? AND order_context_models.user_id = ?",
			offerID, domain.StatusFailed, userID).
		Count(&total).Error
	return total, err
}

// Save upserts the order row and inserts any contexts not yet recorded.
// Contexts are immutable once written, so conflicts on (order_id, user_id)
// are ignored rather than updated.
func (r *DefaultOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	orderModel := mappers.ToOrderModel(order)
	orderContexts := orderModel.Contexts
	orderModel.Contexts = nil

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(orderModel).Error; err != nil {
			return err
		}

		if len(orderContexts) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&orderContexts).Error
	})
}

// Remove deletes an order that never left the opened status. The order row
// goes first and the delete is status-guarded: a cancellation racing a
// concurrent submission that already moved the order to pending must not
// strip the surviving order of its contexts, so a missed guard rolls the
// whole transaction back.
func (r *DefaultOrderRepository) Remove(ctx context.Context, order *domain.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND status = ?", order.ID, domain.StatusOpened).
			Delete(&models.OrderModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("order %s is no longer opened", order.ID)
		}
		return tx.Where("order_id = ?", order.ID).Delete(&models.OrderContextModel{}).Error
	})
}

// UpdateStatusIf performs the guarded status transition: the row moves from
// the expected status to the new one in a single conditional write, and the
// caller learns whether it won the transition. The failure cause or the
// settlement value travel in the same write so a losing writer can't clobber
// them afterwards.
func (r *DefaultOrderRepository) UpdateStatusIf(
	ctx context.Context,
	orderID string,
	from, to domain.OrderStatus,
	orderErr *domain.OrderError,
	value *domain.OrderValue,
	statusDate time.Time,
) (bool, error) {
	updates := map[string]interface{}{
		"status":              to,
		"current_status_date": statusDate,
	}
	if orderErr != nil {
		updates["error_code"] = orderErr.Code
		updates["error_message"] = orderErr.Message
	}
	if value != nil {
		updates["value_type"] = value.Type
		updates["value_tx_id"] = value.TransactionID
		updates["error_code"] = 0
		updates["error_message"] = ""
	}

	result := r.DB.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// UpdateAmount persists a repriced amount without touching the status column,
// so it cannot race a concurrent status transition.
func (r *DefaultOrderRepository) UpdateAmount(ctx context.Context, orderID string, amount int64) error {
	return r.DB.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Update("amount", amount).Error
}
