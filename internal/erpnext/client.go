// Package erpnext provides a small client for the ERPNext REST API: credential
// verification, doctype listings, and customer/item creation.
package erpnext

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/salesbridge/internal/config"
)

// Per-call deadlines. Writes get more headroom because ERPNext runs document
// validation hooks on insert.
const (
	getTimeout  = 10 * time.Second
	postTimeout = 15 * time.Second
)

// APIError represents a non-2xx response from ERPNext with the most useful
// detail extracted from the payload.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Detail)
}

// Item holds the four fields collected by the item draft flow.
type Item struct {
	Code  string
	Name  string
	Group string
	Unit  string
}

// Client defines the ERPNext operations the bot depends on. Credentials are
// passed per call because each group's manager authenticates with their own
// key pair.
type Client interface {
	// VerifyCredentials checks a key/secret pair against the verify endpoint.
	// Returns nil without calling out when no base URL is configured.
	VerifyCredentials(ctx context.Context, key, secret string) error

	// ListResourceNames fetches up to limit document names for a doctype,
	// ordered by name ascending.
	ListResourceNames(ctx context.Context, key, secret, doctype string, limit int) ([]string, error)

	// FindCustomer looks up a customer by exact name. Returns an empty
	// docname when no customer matches.
	FindCustomer(ctx context.Context, key, secret, customerName string) (string, error)

	// CreateCustomer creates a customer with the configured group and type
	// defaults and returns the created docname.
	CreateCustomer(ctx context.Context, key, secret, customerName string) (string, error)

	// CreateItem creates an item document from a completed draft.
	CreateItem(ctx context.Context, key, secret string, item Item) error

	// FetchReportRows fetches recent documents of the given resource, newest
	// first, tolerating the payload shapes ERPNext is known to produce.
	FetchReportRows(ctx context.Context, key, secret, resource string, fields []string, limit int) ([]map[string]any, error)
}

// HTTPClient implements Client against a live ERPNext instance.
type HTTPClient struct {
	cfg        config.ERPNextConfig
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates an ERPNext client from the configured base URL and
// document defaults.
func NewHTTPClient(cfg config.ERPNextConfig, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.VerifyEndpoint != "" && !strings.HasPrefix(cfg.VerifyEndpoint, "/") {
		cfg.VerifyEndpoint = "/" + cfg.VerifyEndpoint
	}

	return &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger.With("component", "erpnext"),
	}
}

// VerifyCredentials checks the key/secret pair by calling the verify endpoint
// as that user. An unset base URL skips the call and accepts the pair.
func (c *HTTPClient) VerifyCredentials(ctx context.Context, key, secret string) error {
	if c.cfg.BaseURL == "" {
		c.logger.DebugContext(ctx, "No ERPNext base URL configured, accepting credentials unverified")
		return nil
	}

	return c.do(ctx, http.MethodGet, c.cfg.VerifyEndpoint, nil, key, secret, nil, nil)
}

// ListResourceNames fetches up to limit document names for a doctype.
func (c *HTTPClient) ListResourceNames(ctx context.Context, key, secret, doctype string, limit int) ([]string, error) {
	query := url.Values{}
	query.Set("fields", `["name"]`)
	query.Set("limit_page_length", strconv.Itoa(limit))
	query.Set("order_by", "name asc")

	var out struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}

	path := "/api/resource/" + url.PathEscape(doctype)
	if err := c.do(ctx, http.MethodGet, path, query, key, secret, nil, &out); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(out.Data))
	for _, row := range out.Data {
		if row.Name != "" {
			names = append(names, row.Name)
		}
	}

	c.logger.DebugContext(ctx, "Fetched resource names", "doctype", doctype, "count", len(names))
	return names, nil
}

// FindCustomer looks up a customer by exact customer_name. Returns an empty
// docname when no customer matches.
func (c *HTTPClient) FindCustomer(ctx context.Context, key, secret, customerName string) (string, error) {
	rawFilters, err := json.Marshal([][]any{{"Customer", "customer_name", "=", customerName}})
	if err != nil {
		return "", fmt.Errorf("failed to encode customer filter: %w", err)
	}

	query := url.Values{}
	query.Set("filters", string(rawFilters))
	query.Set("fields", `["name"]`)
	query.Set("limit_page_length", "1")

	var out struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, "/api/resource/Customer", query, key, secret, nil, &out); err != nil {
		return "", err
	}

	if len(out.Data) == 0 {
		return "", nil
	}
	return out.Data[0].Name, nil
}

// CreateCustomer creates a customer with the configured group and type
// defaults and returns the created docname.
func (c *HTTPClient) CreateCustomer(ctx context.Context, key, secret, customerName string) (string, error) {
	payload := map[string]string{
		"customer_name":  customerName,
		"customer_group": c.cfg.CustomerGroup,
		"customer_type":  c.cfg.CustomerType,
	}

	var out struct {
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, "/api/resource/Customer", nil, key, secret, payload, &out); err != nil {
		return "", err
	}

	if out.Data.Name == "" {
		return "", errors.New("customer created but response carried no docname")
	}

	c.logger.InfoContext(ctx, "ERPNext customer created", "docname", out.Data.Name)
	return out.Data.Name, nil
}

// CreateItem creates an item document from a completed draft.
func (c *HTTPClient) CreateItem(ctx context.Context, key, secret string, item Item) error {
	payload := map[string]string{
		"item_code":  item.Code,
		"item_name":  item.Name,
		"item_group": item.Group,
		"stock_uom":  item.Unit,
	}

	if err := c.do(ctx, http.MethodPost, "/api/resource/Item", nil, key, secret, payload, nil); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "ERPNext item created", "item_code", item.Code)
	return nil
}

// FetchReportRows fetches recent documents of the given resource, newest
// first.
func (c *HTTPClient) FetchReportRows(ctx context.Context, key, secret, resource string, fields []string, limit int) ([]map[string]any, error) {
	rawFields, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report fields: %w", err)
	}

	query := url.Values{}
	query.Set("fields", string(rawFields))
	query.Set("limit_page_length", strconv.Itoa(limit))
	query.Set("order_by", "modified desc")

	var payload any
	path := "/api/resource/" + url.PathEscape(resource)
	if err := c.do(ctx, http.MethodGet, path, query, key, secret, nil, &payload); err != nil {
		return nil, err
	}

	return normalizeReportRows(payload), nil
}

// normalizeReportRows accepts the payload shapes ERPNext is known to produce:
// an object carrying a data list, a bare list, or a single object.
func normalizeReportRows(payload any) []map[string]any {
	value := payload
	if obj, ok := payload.(map[string]any); ok {
		if data, exists := obj["data"]; exists {
			value = data
		}
	}

	switch v := value.(type) {
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if row, ok := item.(map[string]any); ok {
				rows = append(rows, row)
			}
		}
		return rows
	case map[string]any:
		return []map[string]any{v}
	default:
		return nil
	}
}

// do handles the request/response cycle: JSON encoding, the token auth
// header, the per-method deadline, and error detail extraction.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, key, secret string, body, out any) error {
	timeout := getTimeout
	if method == http.MethodPost {
		timeout = postTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "token "+key+":"+secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.WarnContext(ctx, "Failed to close response body", "error", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.WarnContext(ctx, "ERPNext request failed",
			"method", method, "path", path, "status_code", resp.StatusCode)
		return &APIError{
			StatusCode: resp.StatusCode,
			Detail:     extractErrorDetail(respBody, method == http.MethodPost),
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}

	return nil
}

// extractErrorDetail pulls the most specific human-readable detail out of an
// ERPNext error payload: message, then exception, then (for writes) the
// _server_messages validation output, then the raw body.
func extractErrorDetail(body []byte, includeServerMessages bool) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}

	for _, field := range []string{"message", "exception"} {
		if value, ok := payload[field].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}

	if includeServerMessages {
		if raw, ok := payload["_server_messages"].(string); ok && raw != "" {
			if detail := parseServerMessages(raw); detail != "" {
				return detail
			}
		}
	}

	return strings.TrimSpace(string(body))
}

// parseServerMessages decodes ERPNext's _server_messages field: a JSON array
// encoded as a string, each element itself a JSON-encoded object with a
// message field.
func parseServerMessages(raw string) string {
	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil || len(entries) == 0 {
		return ""
	}

	var parts []string
	for _, entry := range entries {
		var inner struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(entry), &inner); err == nil && strings.TrimSpace(inner.Message) != "" {
			parts = append(parts, strings.TrimSpace(inner.Message))
		}
	}

	return strings.Join(parts, "; ")
}
