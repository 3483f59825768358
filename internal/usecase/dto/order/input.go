package orderdto

import "github.com/lumapay/marketplace-order-service/internal/domain"

// Translations carries caller-supplied localized order text overriding the
// offer's default title and description.
type Translations struct {
	OrderTitle       string
	OrderDescription string
}

// HistoryFilters narrows the order history listing.
type HistoryFilters struct {
	Origin  domain.OrderOrigin
	OfferID string
}

// HistoryPage is the cursor-paged window of a history request.
type HistoryPage struct {
	Limit  int
	Before string
	After  string
}

// SubmitOrderInput is the caller-supplied content of a submission: the filled
// form of a form-driven marketplace offer and, for spend orders settling on a
// backend version that requires one, the explicit transaction payload.
type SubmitOrderInput struct {
	Form        string
	Transaction string
}

// OrderChange is the caller-requested patch of a closed order; the only
// supported change is failing it with an error.
type OrderChange struct {
	Error *domain.OrderError
}
