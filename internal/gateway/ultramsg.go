package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://api.ultramsg.com"
	DefaultCountryCode = "91"
	DefaultTimeout     = 10 * time.Second

	nationalNumberLength = 10
)

// CodeMessageTemplate is the WhatsApp body sent with every one-time code.
const CodeMessageTemplate = "🔐 Your LifeCord OTP is: *%s*\n\nThis code is valid for 5 minutes.\n\nDo not share this code with anyone.\n\n- LifeCord Team"

// FormatCodeMessage renders the code message.
func FormatCodeMessage(code string) string {
	return fmt.Sprintf(CodeMessageTemplate, code)
}

// Config describes an UltraMsg instance.
type Config struct {
	InstanceID  string
	Token       string
	BaseURL     string
	CountryCode string
	Timeout     time.Duration

	// Consecutive transport failures before the breaker opens, and how long
	// it stays open.
	MaxFailures uint32
	Cooldown    time.Duration
}

// UltramsgClient sends WhatsApp text messages through the UltraMsg HTTP API.
type UltramsgClient struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.SugaredLogger
}

func NewUltramsgClient(cfg Config, logger *zap.SugaredLogger) *UltramsgClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = DefaultCountryCode
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        "ultramsg",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// A gateway that answers with a rejection is healthy.
		IsSuccessful: func(err error) bool {
			var rejected *RejectedError
			return err == nil || (errors.As(err, &rejected) && rejected.StatusCode < 500)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &UltramsgClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker(st),
		logger:     logger,
	}
}

// Configured reports whether credentials are present.
func (c *UltramsgClient) Configured() bool {
	return c.cfg.InstanceID != "" && c.cfg.Token != ""
}

// NormalizePhone prefixes the country code onto a bare national number.
func (c *UltramsgClient) NormalizePhone(phone string) string {
	if len(phone) > nationalNumberLength && strings.HasPrefix(phone, c.cfg.CountryCode) {
		return phone
	}
	return c.cfg.CountryCode + phone
}

// Dispatch sends a one-time code to phone.
func (c *UltramsgClient) Dispatch(ctx context.Context, phone, code string) error {
	_, err := c.SendMessage(ctx, phone, FormatCodeMessage(code))
	return err
}

// SendMessage posts a chat message and returns the decoded gateway response.
func (c *UltramsgClient) SendMessage(ctx context.Context, phone, body string) (map[string]interface{}, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, c.NormalizePhone(phone), body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransportError{Err: err}
		}
		return nil, err
	}
	return res.(map[string]interface{}), nil
}

func (c *UltramsgClient) post(ctx context.Context, to, body string) (map[string]interface{}, error) {
	endpoint := fmt.Sprintf("%s/%s/messages/chat", strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(c.cfg.InstanceID))

	form := url.Values{}
	form.Set("token", c.cfg.Token)
	form.Set("to", to)
	form.Set("body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &RejectedError{
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("unreadable gateway response: %s", strings.TrimSpace(string(raw))),
		}
	}

	if resp.StatusCode == http.StatusOK && fmt.Sprint(result["sent"]) == "true" {
		return result, nil
	}

	reason := "Unknown error"
	if e, ok := result["error"]; ok && e != nil {
		reason = fmt.Sprint(e)
	}
	return nil, &RejectedError{StatusCode: resp.StatusCode, Reason: reason, Payload: result}
}
