// Package api calls the Combo server REST API. Every physical request,
// retries included, carries a freshly signed Authorization header.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator"
	combo "github.com/seayoo-io/combo-sdk-go"
	"github.com/seayoo-io/combo-sdk-go/signer"
	"github.com/seayoo-io/combo-sdk-go/transport"
	"go.uber.org/zap"
)

const maxQuantity = 1<<53 - 1

var validate = validator.New()

type Client struct {
	baseURL  string
	executor *transport.Executor
	logger   *zap.Logger
}

type options struct {
	retry      transport.RetryPolicy
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	observer   func(string)
	clock      func() time.Time
}

type Option func(*options)

// WithRetryPolicy replaces the default of one retry on network failure.
func WithRetryPolicy(p transport.RetryPolicy) Option {
	return func(o *options) { o.retry = p }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default http client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAttemptObserver receives the result of every physical request.
func WithAttemptObserver(fn func(result string)) Option {
	return func(o *options) { o.observer = fn }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// NewClient validates cfg and builds a client for its endpoint.
func NewClient(cfg combo.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{
		retry:   transport.DefaultRetryPolicy,
		timeout: 10 * time.Second,
		logger:  zap.NewNop(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}

	endpoint := strings.TrimSuffix(string(cfg.Endpoint), "/")
	s := signer.New(cfg.Game, string(cfg.Secret), endpoint,
		signer.WithClock(o.clock),
		signer.WithLogger(o.logger),
	)
	sign := func(req *http.Request, body []byte, _ int) error {
		auth, err := s.Authorization(req.Method, req.URL.String(), body)
		if err != nil {
			return err
		}
		req.Header.Set(signer.AuthorizationHeader, auth)
		return nil
	}

	return &Client{
		baseURL: endpoint + combo.ApiPrefix,
		executor: transport.NewExecutor(
			transport.WithHTTPClient(o.httpClient),
			transport.WithRetryPolicy(o.retry),
			transport.WithUserAgent(UserAgent(cfg.Game)),
			transport.WithRequestHook(sign),
			transport.WithLogger(o.logger),
			transport.WithObserver(o.observer),
		),
		logger: o.logger,
	}, nil
}

// UserAgent identifies the SDK, the game and the runtime.
func UserAgent(game string) string {
	return fmt.Sprintf("%s/%s game/%s go/%s os/%s arch/%s",
		combo.SDKName, combo.SDKVersion, game, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// CreateOrder creates an order and returns the token the client uses to
// pay for it.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderOutput, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	in.Quantity = min(max(in.Quantity, 1), maxQuantity)

	resp, err := c.post(ctx, "create-order", in)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	out, err := transport.DecodeJSON[CreateOrderOutput](resp)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return nil, fmt.Errorf("create order: unexpected response: %w", err)
	}
	return out, nil
}

// EnterGame reports that a player entered the game world. It is only
// used for anti-addiction reporting; use the same session id for the
// matching LeaveGame.
func (c *Client) EnterGame(ctx context.Context, comboID, sessionID string) error {
	return c.reportSession(ctx, "enter-game", comboID, sessionID)
}

// LeaveGame reports that a player left the game world.
func (c *Client) LeaveGame(ctx context.Context, comboID, sessionID string) error {
	return c.reportSession(ctx, "leave-game", comboID, sessionID)
}

func (c *Client) reportSession(ctx context.Context, path, comboID, sessionID string) error {
	in := sessionInput{ComboID: comboID, SessionID: sessionID}
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	resp, err := c.post(ctx, path, in)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*transport.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}
	resp := c.executor.Execute(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/" + path,
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   body,
	})
	if !resp.OK() {
		c.logger.Warn("combo api call failed",
			zap.String("path", path),
			zap.Int("status", resp.Status),
			zap.Int("attempts", resp.Attempts),
		)
	}
	return resp, nil
}
