package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
)

// MarketplaceClient resolves offers, applications, users and offer content
// from the marketplace service. It backs the Catalog, UserDirectory and
// ContentResolver ports.
type MarketplaceClient struct {
	baseURL string
	client  *http.Client
}

func NewMarketplaceClient(baseURL string) *MarketplaceClient {
	return &MarketplaceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

type offerResponse struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
	Meta   struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		Content      string `json:"content"`
		CallToAction string `json:"call_to_action"`
	} `json:"meta"`
}

type appOfferResponse struct {
	Offer         offerResponse `json:"offer"`
	AppID         string        `json:"app_id"`
	WalletAddress string        `json:"wallet_address"`
	Cap           struct {
		Total   int64 `json:"total"`
		PerUser int64 `json:"per_user"`
	} `json:"cap"`
}

type appResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	WalletAddresses struct {
		Sender    string `json:"sender"`
		Recipient string `json:"recipient"`
	} `json:"wallet_addresses"`
	BlockchainVersion string `json:"blockchain_version"`
}

type userResponse struct {
	ID        string `json:"id"`
	AppID     string `json:"app_id"`
	AppUserID string `json:"app_user_id"`
}

func toDomainOffer(resp *offerResponse) *domain.Offer {
	return &domain.Offer{
		ID:     resp.ID,
		Type:   domain.OfferType(resp.Type),
		Amount: resp.Amount,
		OrderMeta: domain.OrderMeta{
			Title:        resp.Meta.Title,
			Description:  resp.Meta.Description,
			Content:      resp.Meta.Content,
			CallToAction: resp.Meta.CallToAction,
		},
	}
}

func (c *MarketplaceClient) GetOffer(ctx context.Context, offerID string) (*domain.Offer, error) {
	var resp offerResponse
	found, err := c.get(ctx, "/v1/offers/"+url.PathEscape(offerID), &resp)
	if err != nil || !found {
		return nil, err
	}
	return toDomainOffer(&resp), nil
}

func (c *MarketplaceClient) GetAppOffers(ctx context.Context, appID string, offerType domain.OfferType) ([]*domain.AppOffer, error) {
	path := fmt.Sprintf("/v1/apps/%s/offers?type=%s", url.PathEscape(appID), url.QueryEscape(string(offerType)))
	var resp struct {
		Offers []appOfferResponse `json:"offers"`
	}
	found, err := c.get(ctx, path, &resp)
	if err != nil || !found {
		return nil, err
	}

	appOffers := make([]*domain.AppOffer, 0, len(resp.Offers))
	for i := range resp.Offers {
		item := &resp.Offers[i]
		appOffers = append(appOffers, &domain.AppOffer{
			Offer:         *toDomainOffer(&item.Offer),
			AppID:         item.AppID,
			WalletAddress: item.WalletAddress,
			Cap: domain.Cap{
				Total:   item.Cap.Total,
				PerUser: item.Cap.PerUser,
			},
		})
	}
	return appOffers, nil
}

func (c *MarketplaceClient) GetApp(ctx context.Context, appID string) (*domain.Application, error) {
	var resp appResponse
	found, err := c.get(ctx, "/v1/apps/"+url.PathEscape(appID), &resp)
	if err != nil || !found {
		return nil, err
	}
	return &domain.Application{
		ID:   resp.ID,
		Name: resp.Name,
		WalletAddresses: domain.WalletAddresses{
			Sender:    resp.WalletAddresses.Sender,
			Recipient: resp.WalletAddresses.Recipient,
		},
		BlockchainVersion: resp.BlockchainVersion,
	}, nil
}

func (c *MarketplaceClient) FindUser(ctx context.Context, appID, appUserID string) (*domain.User, error) {
	path := fmt.Sprintf("/v1/apps/%s/users/%s", url.PathEscape(appID), url.PathEscape(appUserID))
	var resp userResponse
	found, err := c.get(ctx, path, &resp)
	if err != nil || !found {
		return nil, err
	}
	return &domain.User{
		ID:        resp.ID,
		AppID:     resp.AppID,
		AppUserID: resp.AppUserID,
	}, nil
}

// SubmitForm forwards a form submission to the offer's content handler. The
// handler may reprice the order, in which case the returned amount is applied
// before the order leaves the opened status.
func (c *MarketplaceClient) SubmitForm(ctx context.Context, order *domain.Order, form string) error {
	body := struct {
		OrderID string `json:"order_id"`
		Form    string `json:"form"`
	}{OrderID: order.ID, Form: form}

	var resp struct {
		Amount *int64 `json:"amount"`
	}
	path := "/v1/offers/" + url.PathEscape(order.OfferID) + "/form"
	if err := c.postJSON(ctx, path, body, &resp); err != nil {
		return err
	}

	if resp.Amount != nil {
		order.Amount = *resp.Amount
	}
	return nil
}

func (c *MarketplaceClient) ContentTypeOf(ctx context.Context, offerID string) (string, error) {
	var resp struct {
		ContentType string `json:"content_type"`
	}
	found, err := c.get(ctx, "/v1/offers/"+url.PathEscape(offerID)+"/content-type", &resp)
	if err != nil || !found {
		return "", err
	}
	return resp.ContentType, nil
}

// get decodes a JSON response into out. A 404 reports found=false with no
// error, matching the nil-on-absent convention of the ports.
func (c *MarketplaceClient) get(ctx context.Context, path string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("marketplace request %s failed: %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MarketplaceClient) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("marketplace request %s failed: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
