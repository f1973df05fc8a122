package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/vportnov/smallwins/internal/common"
)

const (
	defaultTimeout = 15 * time.Second

	// Transient 5xx/connection failures are retried in place a couple of
	// times; a request that still fails is simply picked up again on the
	// next poll cycle.
	transientRetries = 2
	transientBackoff = 500 * time.Millisecond
)

// HTTPClient implements Client against the smallwins JSON API.
type HTTPClient struct {
	baseURL string
	userID  string
	http    *http.Client
}

// NewHTTPClient returns a client for the API at baseURL. Every request
// carries userID in the anonymous identity header.
func NewHTTPClient(baseURL string, userID string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		userID:  userID,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) List(ctx context.Context, params ListMomentsParams) (*ListMomentsResult, error) {
	query := url.Values{}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Cursor != "" {
		query.Set("cursor", params.Cursor)
	}
	if params.IsFavorite != nil {
		query.Set("isFavorite", strconv.FormatBool(*params.IsFavorite))
	}

	var result ListMomentsResult
	if err := c.do(ctx, http.MethodGet, "/moments", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) GetByServerID(ctx context.Context, serverID string) (*Moment, error) {
	var resp itemResponse
	path := "/moments/" + url.PathEscape(serverID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

func (c *HTTPClient) GetByClientID(ctx context.Context, clientID string) (*Moment, error) {
	var resp itemResponse
	path := "/moments/by-client-id/" + url.PathEscape(clientID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

func (c *HTTPClient) Create(ctx context.Context, req CreateMomentRequest) (*Moment, error) {
	var resp itemResponse
	if err := c.do(ctx, http.MethodPost, "/moments", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

func (c *HTTPClient) RequestEnrichment(ctx context.Context, serverID string) (*Moment, error) {
	var resp itemResponse
	path := "/moments/" + url.PathEscape(serverID) + "/enrich"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

func (c *HTTPClient) SetFavorite(ctx context.Context, serverID string, isFavorite bool) error {
	path := "/moments/" + url.PathEscape(serverID)
	body := struct {
		IsFavorite bool `json:"isFavorite"`
	}{IsFavorite: isFavorite}
	return c.do(ctx, http.MethodPut, path, nil, body, nil)
}

func (c *HTTPClient) Delete(ctx context.Context, serverID string) error {
	path := "/moments/" + url.PathEscape(serverID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *HTTPClient) Restore(ctx context.Context, serverID string) (*Moment, error) {
	var resp itemResponse
	path := "/moments/" + url.PathEscape(serverID) + "/restore"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// do performs one JSON request. The request body is marshalled once and
// rebuilt per attempt so transient failures can be retried safely.
func (c *HTTPClient) do(ctx context.Context, method string, path string, query url.Values, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	backoff := retry.WithMaxRetries(transientRetries, retry.NewConstant(transientBackoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return err
		}
		req.Header.Set(common.UserIDHeaderName, c.userID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return c.mapError(resp)
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
		}
		return nil
	})
}

// mapError converts a non-2xx response into a sentinel error. Wire error
// codes take precedence over the HTTP status: the server reports quota
// conditions with a code, not a status we could branch on.
func (c *HTTPClient) mapError(resp *http.Response) error {
	var er errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&er)

	switch er.Code {
	case codeDailyLimitReached:
		return ErrDailyLimitReached
	case codeTotalLimitReached:
		return ErrTotalLimitReached
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrEnrichInProgress
	}

	if er.Error != "" {
		return fmt.Errorf("server error (status %d): %s", resp.StatusCode, er.Error)
	}
	return fmt.Errorf("server error: status %d", resp.StatusCode)
}
