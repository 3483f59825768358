package domain

import "fmt"

// Error codes are stable across releases; clients match on Code, not Message.
const (
	CodeMissingField = 4001

	CodeNoSuchOffer = 4041
	CodeNoSuchOrder = 4042
	CodeNoSuchUser  = 4043
	CodeNoSuchApp   = 4044

	CodeTransactionTimeout = 4081

	CodeOfferCapReached                      = 4091
	CodeExternalOrderAlreadyCompleted        = 4092
	CodeOpenOrderExpired                     = 4093
	CodeUserHasNoWallet                      = 4095
	CodeCompletedOrderCantTransitionToFailed = 4096
	CodeOpenedOrdersOnly                     = 4097
	CodeOpenedOrdersUnreturnable             = 4098

	CodeRateLimitExceeded = 4291
)

// Error is a typed marketplace failure surfaced to callers. Two errors match
// under errors.Is when they carry the same code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// ToOrderError converts the error into the form persisted on failed orders.
func (e *Error) ToOrderError() *OrderError {
	return &OrderError{Code: e.Code, Message: e.Message}
}

func NoSuchOffer(offerID string) *Error {
	return &Error{Code: CodeNoSuchOffer, Message: fmt.Sprintf("no such offer %s", offerID)}
}

func NoSuchOrder(orderID string) *Error {
	return &Error{Code: CodeNoSuchOrder, Message: fmt.Sprintf("no such order %s", orderID)}
}

func NoSuchUser(userID string) *Error {
	return &Error{Code: CodeNoSuchUser, Message: fmt.Sprintf("no such user %s", userID)}
}

func NoSuchApp(appID string) *Error {
	return &Error{Code: CodeNoSuchApp, Message: fmt.Sprintf("no such app %s", appID)}
}

func UserHasNoWallet(userID string) *Error {
	return &Error{Code: CodeUserHasNoWallet, Message: fmt.Sprintf("user %s has no wallet", userID)}
}

func OfferCapReached(offerID string) *Error {
	return &Error{Code: CodeOfferCapReached, Message: fmt.Sprintf("cap reached for offer %s", offerID)}
}

func OpenOrderExpired(orderID string) *Error {
	return &Error{Code: CodeOpenOrderExpired, Message: fmt.Sprintf("open order %s expired", orderID)}
}

func ExternalOrderAlreadyCompleted(orderID string, status OrderStatus) *Error {
	return &Error{
		Code:    CodeExternalOrderAlreadyCompleted,
		Message: fmt.Sprintf("external order %s is already %s", orderID, status),
	}
}

func CompletedOrderCantTransitionToFailed() *Error {
	return &Error{Code: CodeCompletedOrderCantTransitionToFailed, Message: "completed order can't transition to failed"}
}

func OpenedOrdersOnly() *Error {
	return &Error{Code: CodeOpenedOrdersOnly, Message: "only opened orders can be returned via the open order view"}
}

func OpenedOrdersUnreturnable() *Error {
	return &Error{Code: CodeOpenedOrdersUnreturnable, Message: "opened orders can't be returned via the order view"}
}

func MissingField(field string) *Error {
	return &Error{Code: CodeMissingField, Message: fmt.Sprintf("missing required field: %s", field)}
}

func TransactionTimeout() *Error {
	return &Error{Code: CodeTransactionTimeout, Message: "transaction timed out"}
}

func RateLimitExceeded(userID string) *Error {
	return &Error{Code: CodeRateLimitExceeded, Message: fmt.Sprintf("earn rate limit exceeded for user %s", userID)}
}
