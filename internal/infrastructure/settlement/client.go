package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient talks to the settlement backend over its internal REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

type payToRequest struct {
	RecipientAddress  string `json:"recipient_address"`
	AppID             string `json:"app_id"`
	Amount            int64  `json:"amount"`
	OrderID           string `json:"order_id"`
	BlockchainVersion string `json:"blockchain_version"`
}

type submitTransactionRequest struct {
	RecipientAddress string `json:"recipient_address"`
	SenderAddress    string `json:"sender_address"`
	AppID            string `json:"app_id"`
	Amount           int64  `json:"amount"`
	OrderID          string `json:"order_id"`
	Transaction      string `json:"transaction"`
}

type registerWatchRequest struct {
	Address string `json:"address"`
	OrderID string `json:"order_id"`
	AppID   string `json:"app_id"`
}

func (c *HTTPClient) PayTo(ctx context.Context, recipientAddress, appID string, amount int64, orderID, blockchainVersion string) error {
	return c.post(ctx, "/v1/payments", payToRequest{
		RecipientAddress:  recipientAddress,
		AppID:             appID,
		Amount:            amount,
		OrderID:           orderID,
		BlockchainVersion: blockchainVersion,
	})
}

func (c *HTTPClient) SubmitTransaction(ctx context.Context, recipientAddress, senderAddress, appID string, amount int64, orderID, transaction string) error {
	return c.post(ctx, "/v1/transactions", submitTransactionRequest{
		RecipientAddress: recipientAddress,
		SenderAddress:    senderAddress,
		AppID:            appID,
		Amount:           amount,
		OrderID:          orderID,
		Transaction:      transaction,
	})
}

func (c *HTTPClient) RegisterWatch(ctx context.Context, address, orderID, appID string) error {
	return c.post(ctx, "/v1/watchers", registerWatchRequest{
		Address: address,
		OrderID: orderID,
		AppID:   appID,
	})
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}) error {
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

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("settlement request %s failed: %s: %s", path, resp.Status, string(detail))
	}
	return nil
}
