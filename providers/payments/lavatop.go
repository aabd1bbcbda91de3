package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"aurex/helpers"

	"github.com/shopspring/decimal"
)

// LavaTopClient is the outbound side of the lava.top integration. Every
// request carries the HMAC signature over the sorted payload, apiKey as the
// secret, matching what the webhooks are verified with.
type LavaTopClient struct {
	ApiURL      string
	ShopID      string
	ApiKey      string
	FrontendURL string
}

func NewLavaTopFromEnv() *LavaTopClient {
	return &LavaTopClient{
		ApiURL:      os.Getenv("LAVA_API_URL"),
		ShopID:      os.Getenv("LAVA_SHOP_ID"),
		ApiKey:      os.Getenv("LAVA_API_KEY"),
		FrontendURL: os.Getenv("FRONTEND_URL"),
	}
}

var lavaHTTP = &http.Client{Timeout: 30 * time.Second}

func (l *LavaTopClient) post(path string, payload map[string]string) (map[string]any, error) {
	payload["signature"] = helpers.SignPayload(payload, l.ApiKey)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, l.ApiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+l.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := lavaHTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lava %s failed, status: %s", path, resp.Status)
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (l *LavaTopClient) CreateInvoice(orderID string, amount decimal.Decimal, currency string) (string, string, error) {
	result, err := l.post("/createInvoice", map[string]string{
		"shopId":     l.ShopID,
		"amount":     amount.String(),
		"currency":   currency,
		"orderId":    orderID,
		"hookUrl":    l.FrontendURL + "/api/payments/lava-callback",
		"successUrl": l.FrontendURL + "/payment/success",
		"failUrl":    l.FrontendURL + "/payment/fail",
	})
	if err != nil {
		return "", "", err
	}
	invoiceID, _ := result["id"].(string)
	payURL, _ := result["url"].(string)
	return invoiceID, payURL, nil
}

func (l *LavaTopClient) CreatePayout(orderID string, amount decimal.Decimal, currency, destination string) (string, error) {
	result, err := l.post("/createPayout", map[string]string{
		"shopId":   l.ShopID,
		"amount":   amount.String(),
		"currency": currency,
		"orderId":  orderID,
		"card":     destination,
		"hookUrl":  l.FrontendURL + "/api/payments/lava-payout-callback",
	})
	if err != nil {
		return "", err
	}
	payoutID, _ := result["id"].(string)
	return payoutID, nil
}

func (l *LavaTopClient) InvoiceStatus(orderID string) (string, error) {
	resp, err := lavaHTTP.Get(l.ApiURL + "/statusInvoice?orderId=" + url.QueryEscape(orderID))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lava statusInvoice failed, status: %s", resp.Status)
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", err
	}
	return result.Status, nil
}
