// Package endee is an HTTP client for the Endee vector-index service.
//
// The client returns raw response bodies. Decoding and interpretation
// happen in the backend session.
package endee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/domain"
	"github.com/kailas-cloud/vecgate/internal/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 64 << 20
)

// Operation names used in errors, logs and metrics.
const (
	OpCreate    = "create"
	OpDelete    = "delete"
	OpInsert    = "insert"
	OpSearch    = "search"
	OpGetVector = "get_vector"
	OpList      = "list"
	OpProbe     = "probe"
)

// Config holds Endee client settings.
type Config struct {
	BaseURL    string // e.g. http://localhost:8080/api/v1
	Token      string // sent verbatim as Authorization when set
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client issues requests against one Endee server.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

// Response is a successful (2xx) backend response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// New creates an Endee client.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endee: invalid base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: timeout,
		http:    hc,
		logger:  logger,
	}, nil
}

type createRequest struct {
	IndexName string `json:"index_name"`
	Dim       int    `json:"dim"`
	SpaceType string `json:"space_type"`
	Precision string `json:"precision"`
	M         int    `json:"M"`
	EFCon     int    `json:"ef_con"`
}

type vectorItem struct {
	ID     string    `json:"id"`
	Vector []float32 `json:"vector"`
}

type searchRequest struct {
	Vector         []float32 `json:"vector"`
	K              int       `json:"k"`
	IncludeVectors bool      `json:"include_vectors"`
}

type getVectorRequest struct {
	ID string `json:"id"`
}

// CreateIndex creates a collection.
func (c *Client) CreateIndex(ctx context.Context, spec domain.IndexSpec) (Response, error) {
	return c.do(ctx, OpCreate, http.MethodPost, "/index/create", createRequest{
		IndexName: spec.Name,
		Dim:       spec.Dimension,
		SpaceType: spec.SpaceType,
		Precision: spec.Precision,
		M:         spec.M,
		EFCon:     spec.EFConstruction,
	})
}

// DeleteIndex deletes a collection.
func (c *Client) DeleteIndex(ctx context.Context, name string) (Response, error) {
	return c.do(ctx, OpDelete, http.MethodDelete, indexPath(name, "/delete"), nil)
}

// Insert bulk-inserts vectors.
func (c *Client) Insert(ctx context.Context, name string, items []domain.VectorItem) (Response, error) {
	body := make([]vectorItem, len(items))
	for i, it := range items {
		body[i] = vectorItem{ID: it.ID, Vector: it.Vector}
	}
	return c.do(ctx, OpInsert, http.MethodPost, indexPath(name, "/vector/insert"), body)
}

// Search runs a k-nearest-neighbour query without returning stored vectors.
func (c *Client) Search(ctx context.Context, name string, vector []float32, k int) (Response, error) {
	return c.do(ctx, OpSearch, http.MethodPost, indexPath(name, "/search"), searchRequest{
		Vector: vector,
		K:      k,
	})
}

// GetVector fetches the stored record for id.
func (c *Client) GetVector(ctx context.Context, name, id string) (Response, error) {
	return c.do(ctx, OpGetVector, http.MethodPost, indexPath(name, "/vector/get"), getVectorRequest{ID: id})
}

// ListIndexes lists collections.
func (c *Client) ListIndexes(ctx context.Context) (Response, error) {
	return c.do(ctx, OpList, http.MethodGet, "/index/list", nil)
}

// Probe checks reachability. Any HTTP response, whatever its status, counts as reachable.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.do(ctx, OpProbe, http.MethodGet, "/index/list", nil)
	var se *StatusError
	if errors.As(err, &se) {
		return nil
	}
	return err
}

func indexPath(name, suffix string) string {
	return "/index/" + url.PathEscape(name) + suffix
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (Response, error) {
	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Response{}, fmt.Errorf("endee %s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, body)
	if err != nil {
		return Response{}, fmt.Errorf("endee %s: build request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, c.transportErr(ctx, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, c.transportErr(ctx, op, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &StatusError{Op: op, Status: resp.StatusCode, Body: truncate(data)}
	}

	c.logger.Debug("endee request",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("latency", time.Since(start)),
	)

	return Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// transportErr keeps the caller's own cancellation distinct from a backend failure.
func (c *Client) transportErr(parent context.Context, op string, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("endee %s: %w", op, parent.Err())
	}
	return &TransportError{Op: op, Err: err}
}
