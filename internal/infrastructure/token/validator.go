package token

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lumapay/marketplace-order-service/internal/domain"
)

// offerClaim mirrors the offer block an application signs into its
// external-order tokens.
type offerClaim struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
}

type partyClaim struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// externalOrderClaims is the registered claim set plus the order payload. The
// subject discriminates the payload kind.
type externalOrderClaims struct {
	jwt.RegisteredClaims
	Offer     offerClaim  `json:"offer"`
	Sender    *partyClaim `json:"sender,omitempty"`
	Recipient *partyClaim `json:"recipient,omitempty"`
	Nonce     string      `json:"nonce,omitempty"`
}

// JWTValidator validates external-order tokens against per-application HMAC
// secrets. The issuer claim names the application whose secret must verify
// the signature, and it has to be the requesting user's own application.
type JWTValidator struct {
	appSecrets map[string]string
}

func NewJWTValidator(appSecrets map[string]string) *JWTValidator {
	return &JWTValidator{appSecrets: appSecrets}
}

func (v *JWTValidator) ValidateExternalOrderToken(
	ctx context.Context,
	tokenString string,
	user *domain.User,
) (*domain.ExternalOrderPayload, error) {
	claims := &externalOrderClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		issuer, err := token.Claims.GetIssuer()
		if err != nil {
			return nil, err
		}
		if issuer != user.AppID {
			return nil, fmt.Errorf("token issued by %q for a user of %q", issuer, user.AppID)
		}
		secret, ok := v.appSecrets[issuer]
		if !ok {
			return nil, fmt.Errorf("no secret registered for app %q", issuer)
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS512"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	kind := domain.PayloadKind(claims.Subject)
	switch kind {
	case domain.PayloadPayToUser, domain.PayloadEarn, domain.PayloadSpend:
	default:
		return nil, fmt.Errorf("unknown order token subject %q", claims.Subject)
	}

	payload := &domain.ExternalOrderPayload{
		Kind:  kind,
		Nonce: claims.Nonce,
		Offer: domain.PayloadOffer{
			ID:     claims.Offer.ID,
			Amount: claims.Offer.Amount,
		},
	}
	if claims.Sender != nil {
		payload.Sender = domain.PayloadParty{
			UserID:      claims.Sender.UserID,
			Title:       claims.Sender.Title,
			Description: claims.Sender.Description,
		}
	}
	if claims.Recipient != nil {
		payload.Recipient = domain.PayloadParty{
			UserID:      claims.Recipient.UserID,
			Title:       claims.Recipient.Title,
			Description: claims.Recipient.Description,
		}
	}

	return payload, nil
}
