package mappers

import (
	"github.com/lumapay/marketplace-order-service/internal/domain"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/postgres/models"
)

func ToOrderModel(order *domain.Order) *models.OrderModel {
	model := &models.OrderModel{
		ID:                order.ID,
		OfferID:           order.OfferID,
		Nonce:             order.Nonce,
		Amount:            order.Amount,
		Status:            order.Status,
		Origin:            order.Origin,
		Kind:              order.Kind,
		SenderAddress:     order.BlockchainData.SenderAddress,
		RecipientAddress:  order.BlockchainData.RecipientAddress,
		Memo:              order.BlockchainData.Memo,
		ExpirationDate:    order.ExpirationDate,
		CreatedDate:       order.CreatedDate,
		CurrentStatusDate: order.CurrentStatusDate,
	}

	if order.Error != nil {
		model.ErrorCode = order.Error.Code
		model.ErrorMessage = order.Error.Message
	}
	if order.Value != nil {
		model.ValueType = order.Value.Type
		model.ValueTxID = order.Value.TransactionID
	}

	for _, orderContext := range order.Contexts {
		model.Contexts = append(model.Contexts, models.OrderContextModel{
			OrderID:       order.ID,
			UserID:        orderContext.UserID,
			AppID:         orderContext.AppID,
			Type:          orderContext.Type,
			WalletAddress: orderContext.WalletAddress,
			Title:         orderContext.Meta.Title,
			Description:   orderContext.Meta.Description,
			Content:       orderContext.Meta.Content,
			CallToAction:  orderContext.Meta.CallToAction,
		})
	}

	return model
}

func ToOrderDomain(model *models.OrderModel) *domain.Order {
	order := &domain.Order{
		ID:      model.ID,
		OfferID: model.OfferID,
		Nonce:   model.Nonce,
		Amount:  model.Amount,
		Status:  model.Status,
		Origin:  model.Origin,
		Kind:    model.Kind,
		BlockchainData: domain.BlockchainData{
			SenderAddress:    model.SenderAddress,
			RecipientAddress: model.RecipientAddress,
			Memo:             model.Memo,
		},
		ExpirationDate:    model.ExpirationDate,
		CreatedDate:       model.CreatedDate,
		CurrentStatusDate: model.CurrentStatusDate,
	}

	if model.ErrorCode != 0 {
		order.Error = &domain.OrderError{
			Code:    model.ErrorCode,
			Message: model.ErrorMessage,
		}
	}
	if model.ValueType != "" {
		order.Value = &domain.OrderValue{
			Type:          model.ValueType,
			TransactionID: model.ValueTxID,
		}
	}

	for _, contextModel := range model.Contexts {
		order.Contexts = append(order.Contexts, domain.OrderContext{
			UserID:        contextModel.UserID,
			AppID:         contextModel.AppID,
			Type:          contextModel.Type,
			WalletAddress: contextModel.WalletAddress,
			Meta: domain.OrderMeta{
				Title:        contextModel.Title,
				Description:  contextModel.Description,
				Content:      contextModel.Content,
				CallToAction: contextModel.CallToAction,
			},
		})
	}

	return order
}
