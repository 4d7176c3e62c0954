// Package rpc is a JSON-RPC 2.0 client for the chain node. Call returns the
// decoded body even when it carries an error member; only transport level
// failures come back as errors. The typed methods in methods.go turn error
// members into *ProtocolAPIError.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	url        string
	http       *resty.Client
	maxRetries int
	logger     *slog.Logger
	nextID     atomic.Uint64
}

func NewClient(url string, timeout time.Duration, maxRetries int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	http := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		url:        url,
		http:       http,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Call sends one request. Read-only query.* methods are retried on transport
// errors with exponential backoff (100ms, 200ms, 400ms...); anything that can
// change chain state is sent exactly once.
func (c *Client) Call(ctx context.Context, method string, params any) (*Response, error) {
	if params == nil {
		params = struct{}{}
	}

	retries := 0
	if isReadOnly(method) {
		retries = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		req := Request{
			JSONRPC: "2.0",
			Method:  method,
			Params:  params,
			ID:      c.nextID.Add(1),
		}

		start := time.Now()
		resp, err := c.doRequest(ctx, req)
		c.logger.Debug("rpc call",
			"method", method,
			"id", req.ID,
			"attempt", attempt+1,
			"latency", time.Since(start),
			"err", err)

		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt < retries {
			backoff := time.Duration(1<<attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, &TransportError{Method: method, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}
	}

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, req Request) (*Response, error) {
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.url)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Err: err}
	}

	if !httpResp.IsSuccess() {
		return nil, &TransportError{Method: req.Method, Err: fmt.Errorf("HTTP %d", httpResp.StatusCode())}
	}

	var resp Response
	if err := json.Unmarshal(httpResp.Body(), &resp); err != nil {
		return nil, &TransportError{Method: req.Method, Err: fmt.Errorf("invalid JSON response: %w", err)}
	}

	return &resp, nil
}

func isReadOnly(method string) bool {
	return strings.HasPrefix(method, "query.")
}
