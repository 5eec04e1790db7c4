package lotteryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/logger"
)

// Client is the request/response boundary to the external customer, draw
// and ticket system. Implementations make no retries.
type Client interface {
	// GetCustomerByPhone returns ErrNotFound for unknown phones.
	GetCustomerByPhone(ctx context.Context, phone string) (*Customer, error)
	// GetCurrentDraw returns (nil, nil) when no draw is published.
	GetCurrentDraw(ctx context.Context) (*Draw, error)
	GetDraw(ctx context.Context, drawID int64) (*Draw, error)
	// ListCustomerTickets optionally filters by draw.
	ListCustomerTickets(ctx context.Context, customerID int64, drawID *int64) ([]Ticket, error)
	CreateTicket(ctx context.Context, req CreateTicketRequest) (*Ticket, error)
	FillTicket(ctx context.Context, req FillTicketRequest) (*Ticket, error)
}

const maxErrorBody = 2048

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

// NewHTTPClient creates a client with a fixed per-call timeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

// do sends one request and decodes a 2xx body into out. It returns the
// status code alongside any error so callers can special-case it.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("lotteryapi: cannot encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, fmt.Errorf("lotteryapi: cannot build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return resp.StatusCode, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return resp.StatusCode, fmt.Errorf("%w: %s %s: %v", ErrTransient, method, path, err)
		}
		return resp.StatusCode, fmt.Errorf("%w: cannot decode %s %s: %v", ErrUnexpected, method, path, err)
	}
	return resp.StatusCode, nil
}

// GetCustomerByPhone looks the customer up by phone. The phone is sent as
// digits with a leading '+' country-code marker.
func (c *HTTPClient) GetCustomerByPhone(ctx context.Context, phone string) (*Customer, error) {
	query := url.Values{"phone": {"+" + strings.TrimPrefix(phone, "+")}}
	var customer Customer
	if _, err := c.do(ctx, http.MethodGet, "/customers/by-phone", query, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCurrentDraw returns (nil, nil) when nothing is published.
func (c *HTTPClient) GetCurrentDraw(ctx context.Context) (*Draw, error) {
	var draw Draw
	status, err := c.do(ctx, http.MethodGet, "/draws/current", nil, nil, &draw)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || draw.ID == 0 {
		return nil, nil
	}
	return &draw, nil
}

func (c *HTTPClient) GetDraw(ctx context.Context, drawID int64) (*Draw, error) {
	var draw Draw
	if _, err := c.do(ctx, http.MethodGet, "/draws/"+strconv.FormatInt(drawID, 10), nil, nil, &draw); err != nil {
		return nil, err
	}
	return &draw, nil
}

func (c *HTTPClient) ListCustomerTickets(ctx context.Context, customerID int64, drawID *int64) ([]Ticket, error) {
	var query url.Values
	if drawID != nil {
		query = url.Values{"draw_id": {strconv.FormatInt(*drawID, 10)}}
	}
	var raw []json.RawMessage
	path := "/customers/" + strconv.FormatInt(customerID, 10) + "/tickets"
	if _, err := c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	// records are decoded one by one so a malformed entry costs only itself
	tickets := make([]Ticket, 0, len(raw))
	for i, item := range raw {
		var t Ticket
		if err := json.Unmarshal(item, &t); err != nil {
			logger.Warningf("lotteryapi: skipping malformed ticket %d of customer %d: %v", i, customerID, err)
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func (c *HTTPClient) CreateTicket(ctx context.Context, req CreateTicketRequest) (*Ticket, error) {
	var ticket Ticket
	if _, err := c.do(ctx, http.MethodPost, "/tickets", nil, req, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// FillTicket maps 404 to ErrNoUnfilledTicket.
func (c *HTTPClient) FillTicket(ctx context.Context, req FillTicketRequest) (*Ticket, error) {
	var ticket Ticket
	_, err := c.do(ctx, http.MethodPost, "/tickets/fill", nil, req, &ticket)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			apiErr.Err = ErrNoUnfilledTicket
		}
		return nil, err
	}
	return &ticket, nil
}
