// internal/infra/praktikum/client.go
package praktikum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework_status_bot/internal/domain/homework"
)

var (
	ErrFetch         = errors.New("homework status fetch failed")
	ErrInvalidCursor = errors.New("cursor must be a non-negative unix timestamp")
)

// maxBodySize bounds how much of a response is read before decoding.
const maxBodySize = 1 << 20

// FetchError describes why a homework_statuses call produced no usable response.
type FetchError struct {
	Op         string // "request", "status", "decode" or "api"
	StatusCode int    // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (http %d): %v", ErrFetch, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrFetch, e.Op, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

// Client queries the homework_statuses endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

func NewClient(endpoint, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		token:      token,
	}
}

// apiEnvelope is the body shape including the error fields the API uses on failure.
type apiEnvelope struct {
	homework.Response
	Code    string          `json:"code"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

func (e *apiEnvelope) hasError() bool {
	return len(e.Error) > 0 && string(e.Error) != "null"
}

func (e *apiEnvelope) failed() bool { return e.Code != "" || e.hasError() }

// FetchStatuses returns homeworks updated since fromDate.
func (c *Client) FetchStatuses(ctx context.Context, fromDate int64) (*homework.Response, error) {
	if fromDate < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCursor, fromDate)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &FetchError{Op: "request", Err: err}
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Op: "request", Err: err}
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Op: "request", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Op: "status", StatusCode: resp.StatusCode, Err: errors.New(describeBody(body))}
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &FetchError{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}
	if env.failed() {
		return nil, &FetchError{Op: "api", StatusCode: resp.StatusCode, Err: errors.New(describeBody(body))}
	}

	return &env.Response, nil
}

// describeBody extracts a short human readable reason from an error body.
func describeBody(body []byte) string {
	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Message != "":
			return env.Message
		case env.Code != "":
			return env.Code
		case env.hasError():
			return string(env.Error)
		}
	}
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	if len(body) == 0 {
		return "empty body"
	}
	return string(body)
}
