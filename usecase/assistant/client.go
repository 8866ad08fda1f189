package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/logger"
)

// Defaults of the hosted chat endpoint.
const (
	DefaultBaseURL   = "https://api.siliconflow.cn/v1"
	DefaultModel     = "deepseek-ai/DeepSeek-R1-0528-Qwen3-8B"
	DefaultMaxTokens = 2000
)

// Failure is the category of a failed chat request.
type Failure string

const (
	FailureNetwork   Failure = "network"
	FailureRateLimit Failure = "rate_limit"
	FailureServer    Failure = "server"
	FailureClient    Failure = "client"
	FailureUnknown   Failure = "unknown"
)

// User-facing messages per failure category.
const (
	MessageNetwork   = "Network connection is unavailable, please check your network settings."
	MessageRateLimit = "Too many requests, please try again later."
	MessageServer    = "The server hit an internal error, please try again later."
	MessageClient    = "The request was rejected, please contact the administrator."
	MessageUnknown   = "The service is temporarily unavailable, please try again later."
)

// Message returns the text shown to the user for the category.
func (f Failure) Message() string {
	switch f {
	case FailureNetwork:
		return MessageNetwork
	case FailureRateLimit:
		return MessageRateLimit
	case FailureServer:
		return MessageServer
	case FailureClient:
		return MessageClient
	default:
		return MessageUnknown
	}
}

func (f Failure) retryable() bool {
	return f == FailureNetwork || f == FailureServer
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	MaxRetries int
	Backoff    time.Duration
	Timeout    time.Duration
}

// Request is one user turn.
type Request struct {
	History       []domain.ChatMessage
	Message       string
	TimeSensitive bool
	PersonaID     string
}

// Reply is the outcome of Chat. Failed requests carry IsError, a
// user-facing Content and no Operation.
type Reply struct {
	Content   string           `json:"content"`
	Operation domain.Operation `json:"operation,omitempty"`
	IsError   bool             `json:"is_error,omitempty"`
	Failure   Failure          `json:"failure,omitempty"`
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg       Config
	personas  *Personas
	transport http.RoundTripper
	logger    *zap.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

// WithTransport replaces the HTTP transport used for every request.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithSleep replaces the backoff wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func New(cfg Config, personas *Personas, log *zap.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if personas == nil {
		personas = NewPersonas(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		cfg:       cfg,
		personas:  personas,
		transport: http.DefaultTransport,
		logger:    log,
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Personas exposes the registry the client resolves persona ids against.
func (c *Client) Personas() *Personas {
	return c.personas
}

// Chat sends the conversation and returns the reply. Network failures and
// 5xx responses are retried up to MaxRetries times with a linearly growing
// delay; every other failure ends the request at once.
func (c *Client) Chat(ctx context.Context, req Request) *Reply {
	persona := c.personas.Resolve(req.PersonaID)
	messages := c.buildMessages(persona, req)
	log := logger.FromContext(ctx, c.logger)

	var failure Failure
	for attempt := 0; ; attempt++ {
		content, status, err := c.complete(ctx, persona, messages)
		if err == nil {
			return &Reply{Content: content, Operation: ParseOperation(content)}
		}
		failure = classify(err, status)
		log.Warn("chat completion failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.cfg.MaxRetries+1),
			zap.String("failure", string(failure)),
			zap.Int("status", status),
			zap.Error(err),
		)
		if attempt >= c.cfg.MaxRetries || !failure.retryable() || ctx.Err() != nil {
			break
		}
		if err := c.sleep(ctx, c.cfg.Backoff*time.Duration(attempt+1)); err != nil {
			break
		}
	}
	return &Reply{Content: failure.Message(), IsError: true, Failure: failure}
}

func (c *Client) buildMessages(persona domain.Persona, req Request) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+3)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: persona.SystemPrompt,
	})
	for _, m := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if req.TimeSensitive {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: CurrentTimeMessage(c.now(), TimeFormatFull),
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Message,
	})
}

// complete performs one attempt. The returned status is the HTTP status of
// the response, or 0 when none arrived.
func (c *Client) complete(ctx context.Context, persona domain.Persona, messages []openai.ChatCompletionMessage) (string, int, error) {
	rec := &statusRecorder{next: c.transport}
	cfg := openai.DefaultConfig(c.cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(c.cfg.BaseURL, "/")
	cfg.HTTPClient = &http.Client{Transport: rec, Timeout: c.cfg.Timeout}
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: persona.Temperature,
	})
	if err != nil {
		return "", rec.status, err
	}
	if len(resp.Choices) == 0 {
		return "", rec.status, errors.New("response has no choices")
	}
	return resp.Choices[0].Message.Content, rec.status, nil
}

// Ping reports whether the endpoint answers at all. Any response below 500
// counts as available.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	resp, err := (&http.Client{Transport: c.transport, Timeout: c.cfg.Timeout}).Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("chat endpoint answered %s", resp.Status)
	}
	return nil
}

// statusRecorder remembers the status of the last response, since not every
// error go-openai returns carries it.
type statusRecorder struct {
	next   http.RoundTripper
	status int
}

func (r *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req)
	if err == nil {
		r.status = resp.StatusCode
	}
	return resp, err
}

func classify(err error, status int) Failure {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		status = apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests:
		return FailureRateLimit
	case status >= http.StatusInternalServerError:
		return FailureServer
	case status >= http.StatusBadRequest:
		return FailureClient
	case status == 0 && isNetworkError(err):
		return FailureNetwork
	default:
		return FailureUnknown
	}
}

func isNetworkError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return true
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout() || errors.Is(urlErr.Err, net.ErrClosed)
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
