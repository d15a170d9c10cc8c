package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultAPIVersion = "2024-01"

// RemoteCallError is returned for transport failures and non-2xx answers
// from the Admin API.
type RemoteCallError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RemoteCallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("shopify %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("shopify %s: http %d: %s", e.Op, e.Status, e.Body)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var rce *RemoteCallError
	return errors.As(err, &rce) && rce.Status == http.StatusNotFound
}

type Client struct {
	shop    string
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds an Admin API client. shop may be a bare store name or a
// full *.myshopify.com domain.
func NewClient(shop, apiVersion, accessToken string, timeout time.Duration) *Client {
	shop = NormalizeShopDomain(shop)
	if strings.TrimSpace(apiVersion) == "" {
		apiVersion = DefaultAPIVersion
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		shop:    shop,
		baseURL: fmt.Sprintf("https://%s/admin/api/%s", shop, apiVersion),
		token:   accessToken,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetBaseURL points the client at another Admin API root, e.g. a test server.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// AdminURL links to a resource page in the shop admin.
func (c *Client) AdminURL(path string) string {
	return fmt.Sprintf("https://%s/admin/%s", c.shop, strings.TrimLeft(path, "/"))
}

func NormalizeShopDomain(shop string) string {
	shop = strings.ToLower(strings.TrimSpace(shop))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimRight(shop, "/")
	if shop != "" && !strings.HasSuffix(shop, ".myshopify.com") {
		shop += ".myshopify.com"
	}
	return shop
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), body)
	if err != nil {
		return &RemoteCallError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return &RemoteCallError{Op: op, Err: err}
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &RemoteCallError{Op: op, Status: res.StatusCode, Body: truncate(string(raw), 512)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteCallError{Op: op, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
