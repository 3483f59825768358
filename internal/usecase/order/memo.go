package usecase

import (
	"strings"

	"github.com/lumapay/marketplace-order-service/internal/domain"
)

// Memo is the parsed settlement memo of a cross-app transfer:
// <version>-<appId>-<orderId>.
type Memo struct {
	Version string
	AppID   string
	OrderID string
}

func parseMemo(memo string) (*Memo, error) {
	parts := strings.SplitN(memo, "-", 3)
	if len(parts) != 3 || parts[2] == "" {
		return nil, domain.MissingField("memo")
	}

	return &Memo{
		Version: parts[0],
		AppID:   parts[1],
		OrderID: parts[2],
	}, nil
}
