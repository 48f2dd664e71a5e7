package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gstdash/internal/core"
	"gstdash/internal/log"
)

// Client reads the upstream GST API. It performs no retries; every call
// is at-most-once and deadlines come from the caller's context.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *log.Logger
}

var _ Source = (*Client)(nil)

type Option func(*Client)

// WithAPIKey sets the static credential sent in the Authorization header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for baseURL. The default transport is
// instrumented with OpenTelemetry.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:  log.New(log.DefaultConfig()).WithComponent(log.ComponentAPI),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func (c *Client) ListVendors(ctx context.Context) ([]core.Vendor, error) {
	return getData[[]core.Vendor](ctx, c, ResourceVendors, "", "/vendors", nil)
}

// ListVendorsPage requests ?page=N and decodes the paged shape
// {data, total_count, page_size}.
func (c *Client) ListVendorsPage(ctx context.Context, page int) (core.Page[core.Vendor], error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{"page": {strconv.Itoa(page)}}
	var p core.Page[core.Vendor]
	if err := c.get(ctx, ResourceVendors, "", "/vendors", q, &p); err != nil {
		return core.Page[core.Vendor]{}, err
	}
	p.Number = page
	return p, nil
}

func (c *Client) ListFilingsByVendor(ctx context.Context, gstin string) ([]core.Filing, error) {
	if err := core.ValidateGSTIN(gstin); err != nil {
		return nil, err
	}
	return getData[[]core.Filing](ctx, c, ResourceFilings, gstin, "/gst/filings-with-invoices/"+url.PathEscape(gstin), nil)
}

func (c *Client) ListAllFilings(ctx context.Context) ([]core.Filing, error) {
	return getData[[]core.Filing](ctx, c, ResourceFilings, "", "/gst/filings-with-invoices", nil)
}

func (c *Client) ListLedger(ctx context.Context, gstin string) ([]core.LedgerEntry, error) {
	if err := core.ValidateGSTIN(gstin); err != nil {
		return nil, err
	}
	return getData[[]core.LedgerEntry](ctx, c, ResourceLedger, gstin, "/ledger/"+url.PathEscape(gstin), nil)
}

func (c *Client) GetBalance(ctx context.Context, gstin string) (core.Balance, error) {
	if err := core.ValidateGSTIN(gstin); err != nil {
		return core.Balance{}, err
	}
	return getData[core.Balance](ctx, c, ResourceBalance, gstin, "/ledger/balance/"+url.PathEscape(gstin), nil)
}

func (c *Client) ListCreditNotes(ctx context.Context, gstin string) ([]core.CreditNote, error) {
	if err := core.ValidateGSTIN(gstin); err != nil {
		return nil, err
	}
	return getData[[]core.CreditNote](ctx, c, ResourceCreditNotes, gstin, "/ledger/credit-notes/"+url.PathEscape(gstin), nil)
}

// getData fetches path and unwraps the {data: T} envelope.
func getData[T any](ctx context.Context, c *Client, resource, gstin, path string, q url.Values) (T, error) {
	var env envelope[T]
	if err := c.get(ctx, resource, gstin, path, q, &env); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

func (c *Client) get(ctx context.Context, resource, gstin, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Resource: resource, URL: u, Err: err}
	}
	defer resp.Body.Close()

	fields := log.NewFields().
		WithUpstream(resource, gstin).
		WithHTTPResponse(resp.StatusCode, time.Since(start).Milliseconds(), resp.StatusCode < 400)
	fields[log.FieldUpstreamURL] = u
	c.logger.DebugContext(ctx, "Upstream request completed", fields.ToSlice()...)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &RequestFailedError{Resource: resource, URL: u, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, resource, err)
	}
	return nil
}
