package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
)

// WalletClient resolves user wallets from the wallet service.
type WalletClient struct {
	baseURL string
	client  *http.Client
}

func NewWalletClient(baseURL string) *WalletClient {
	return &WalletClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

// LastUsedWallet returns the wallet the user most recently used on the given
// device, or nil when the user never linked one.
func (c *WalletClient) LastUsedWallet(ctx context.Context, userID, deviceID string) (*domain.Wallet, error) {
	path := fmt.Sprintf("/v1/users/%s/wallets/last?device_id=%s",
		url.PathEscape(userID), url.QueryEscape(deviceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wallet request %s failed: %s", path, resp.Status)
	}

	var body struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &domain.Wallet{Address: body.Address}, nil
}

func (c *WalletClient) BlockchainVersion(ctx context.Context, walletAddress string) (string, error) {
	path := "/v1/wallets/" + url.PathEscape(walletAddress) + "/blockchain-version"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wallet request %s failed: %s", path, resp.Status)
	}

	var body struct {
		BlockchainVersion string `json:"blockchain_version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.BlockchainVersion, nil
}
