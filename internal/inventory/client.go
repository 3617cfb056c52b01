// Package inventory is the HTTP client for the inventory management
// service, used to validate product existence and to lock stock during
// order creation.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	productsPath  = "/api/v1/products"
	stockLockPath = "/api/v1/stock/lock"
)

var (
	// ErrProductNotFound is returned when the product id is unknown to
	// the inventory service.
	ErrProductNotFound = errors.New("product not found in inventory")

	// ErrUnprocessable is returned when the inventory service rejects a
	// stock lock on business grounds (insufficient stock).
	ErrUnprocessable = errors.New("stock lock rejected by inventory")
)

type Product struct {
	ID       int64  `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type LockItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type LockRequest struct {
	Items []LockItem `json:"items"`
}

type LockResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) GetProduct(ctx context.Context, productID int64) (Product, error) {
	url := fmt.Sprintf("%s%s/%d", c.baseURL, productsPath, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Product{}, fmt.Errorf("failed to build product request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Product{}, fmt.Errorf("failed to call inventory service: %w", err)
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Product{}, ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return Product{}, fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}

	var product Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return Product{}, fmt.Errorf("failed to decode product response: %w", err)
	}
	return product, nil
}

func (c *Client) LockStock(ctx context.Context, items []LockItem) (LockResult, error) {
	body, err := json.Marshal(LockRequest{Items: items})
	if err != nil {
		return LockResult{}, fmt.Errorf("failed to marshal lock request: %w", err)
	}

	url := c.baseURL + stockLockPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return LockResult{}, fmt.Errorf("failed to build lock request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return LockResult{}, fmt.Errorf("failed to call inventory service: %w", err)
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return LockResult{}, fmt.Errorf("%w: status %d", ErrUnprocessable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return LockResult{}, fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}

	var result LockResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return LockResult{}, fmt.Errorf("failed to decode lock response: %w", err)
	}
	return result, nil
}

// drain reads the body to completion so the connection can be reused.
func drain(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
