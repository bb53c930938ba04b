package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"darma/internal/domain"
)

const defaultBaseURL = "https://api.pinata.cloud"

// Client pins JSON documents to IPFS through Pinata. JWT auth is preferred;
// the api-key/secret pair is the fallback. A client with no credentials is
// valid but disabled, which callers treat as "storage unavailable".
type Client struct {
	http      *http.Client
	baseURL   string
	jwt       string
	apiKey    string
	apiSecret string
}

type Options struct {
	JWT       string
	APIKey    string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   base,
		jwt:       opts.JWT,
		apiKey:    opts.APIKey,
		apiSecret: opts.APISecret,
	}
}

func (c *Client) Enabled() bool {
	return c.jwt != "" || (c.apiKey != "" && c.apiSecret != "")
}

type pinRequest struct {
	PinataContent  any          `json:"pinataContent"`
	PinataMetadata pinMetadata `json:"pinataMetadata"`
}

type pinMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues,omitempty"`
}

// PinJSON uploads content to pinJSONToIPFS and returns the pin receipt.
func (c *Client) PinJSON(ctx context.Context, name string, content any) (domain.PinReceipt, error) {
	if !c.Enabled() {
		return domain.PinReceipt{}, fmt.Errorf("pinata credentials not configured")
	}

	payload := pinRequest{
		PinataContent: content,
		PinataMetadata: pinMetadata{
			Name: fmt.Sprintf("Darma-%s-%d", name, time.Now().UnixMilli()),
			KeyValues: map[string]string{
				"type":     "privacy-proof",
				"protocol": "darma-credit",
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.PinReceipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return domain.PinReceipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwt)
	} else {
		req.Header.Set("pinata_api_key", c.apiKey)
		req.Header.Set("pinata_secret_api_key", c.apiSecret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.PinReceipt{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.PinReceipt{}, fmt.Errorf("pinata: HTTP %d: %s", resp.StatusCode, msg)
	}

	var receipt domain.PinReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return domain.PinReceipt{}, err
	}
	if receipt.CID == "" {
		return domain.PinReceipt{}, fmt.Errorf("pinata: empty IpfsHash in response")
	}
	return receipt, nil
}

// TestAuthentication checks the configured credentials against Pinata.
func (c *Client) TestAuthentication(ctx context.Context) error {
	if !c.Enabled() {
		return fmt.Errorf("pinata credentials not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/testAuthentication", nil)
	if err != nil {
		return err
	}
	if c.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwt)
	} else {
		req.Header.Set("pinata_api_key", c.apiKey)
		req.Header.Set("pinata_secret_api_key", c.apiSecret)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinata: HTTP %d", resp.StatusCode)
	}
	return nil
}
