package orderdto

import (
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
)

// OpenOrderView is the creation-time projection of an order. Only opened
// orders can be projected into it.
type OpenOrderView struct {
	ID             string                `json:"id"`
	OfferID        string                `json:"offer_id"`
	OfferType      domain.OfferType      `json:"offer_type"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Amount         int64                 `json:"amount"`
	Nonce          string                `json:"nonce"`
	BlockchainData domain.BlockchainData `json:"blockchain_data"`
	ExpirationDate time.Time             `json:"expiration_date"`
}

// OrderView is the closed-order projection: everything the viewer's context
// exposes once the order left the opened state.
type OrderView struct {
	ID             string                `json:"id"`
	OfferID        string                `json:"offer_id"`
	OfferType      domain.OfferType      `json:"offer_type"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Content        string                `json:"content,omitempty"`
	CallToAction   string                `json:"call_to_action,omitempty"`
	Amount         int64                 `json:"amount"`
	Nonce          string                `json:"nonce"`
	BlockchainData domain.BlockchainData `json:"blockchain_data"`
	Status         domain.OrderStatus    `json:"status"`
	Origin         domain.OrderOrigin    `json:"origin"`
	CompletionDate time.Time             `json:"completion_date"`
	Error          *domain.OrderError    `json:"error,omitempty"`
	Result         *domain.OrderValue    `json:"result,omitempty"`
}

type OrderList struct {
	Orders []*OrderView `json:"orders"`
	Paging Paging       `json:"paging"`
}

type Paging struct {
	Cursors Cursors `json:"cursors"`
}

type Cursors struct {
	After  string `json:"after,omitempty"`
	Before string `json:"before,omitempty"`
}
