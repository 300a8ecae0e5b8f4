package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	requestIDHeader = "X-Request-Id"
	maxErrorBody    = 1 << 20 // 1 MB
)

var _ Exchanger = (*Client)(nil)

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// Client talks to the Identity Toolkit accounts endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption modifies a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default http.Client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new provider client.
func NewClient(baseURL, apiKey string, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Exchange posts the credentials to accounts:signUp or
// accounts:signInWithPassword depending on mode.
func (c *Client) Exchange(ctx context.Context, mode Mode, email, password string) (*Response, error) {
	if mode != SignUp && mode != SignIn {
		return nil, fmt.Errorf("client.Exchange: unknown mode %s", mode)
	}

	var resp Response
	body := credentialsRequest{Email: email, Password: password, ReturnSecureToken: true}
	if err := c.post(ctx, c.endpoint(mode), body, &resp); err != nil {
		return nil, fmt.Errorf("client.Exchange %s: %w", mode, err)
	}
	return &resp, nil
}

func (c *Client) endpoint(mode Mode) string {
	params := url.Values{}
	params.Set("key", c.apiKey)
	return c.baseURL + "/v1/accounts:" + mode.String() + "?" + params.Encode()
}

func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	logger := log.With().Str("request_id", requestID).Str("path", req.URL.Path).Logger()
	logger.Debug().Msg("Sending credential exchange")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("Credential exchange transport failure")
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	logger.Debug().Int("status", resp.StatusCode).Msg("Credential exchange response")

	if resp.StatusCode >= 400 {
		return decodeProviderError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeProviderError(resp *http.Response) error {
	perr := &ProviderError{StatusCode: resp.StatusCode}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return perr
	}
	var body ErrorBody
	if json.Unmarshal(respBody, &body) == nil && body.Error != nil {
		perr.Body = &body
	}
	return perr
}
