package intent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// Client creates payment intents through the Stripe API.
type Client struct {
	config  Config
	intents *paymentintent.Client
}

// NewClient creates a new client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 30 * time.Second},
		LeveledLogger:     stripeLogger{},
		MaxNetworkRetries: stripe.Int64(config.MaxNetworkRetries),
	}
	if config.BaseURL != "" {
		backendConfig.URL = stripe.String(config.BaseURL)
	}

	return &Client{
		config: config,
		intents: &paymentintent.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
			Key: config.SecretKey,
		},
	}, nil
}

// CreatePaymentIntent registers an intent for the given amount.
func (c *Client) CreatePaymentIntent(ctx context.Context, req CreateRequest) (*Intent, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	currency := req.Currency
	if currency == "" {
		currency = c.config.Currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	logger.Debug("Payment provider request", map[string]interface{}{
		"amount":   req.Amount,
		"currency": currency,
	})

	pi, err := c.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", mapError(err))
	}

	return &Intent{
		ID:           pi.ID,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
	}, nil
}

func mapError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) || stripeErr.HTTPStatusCode == 0 {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	switch stripeErr.HTTPStatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, stripeErr.Msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, stripeErr.Msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrPaymentFailed, stripeErr.HTTPStatusCode, stripeErr.Msg)
	}
}

// stripeLogger routes the SDK's own logging through pkg/logger.
type stripeLogger struct{}

func (stripeLogger) Debugf(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...))
}

func (stripeLogger) Infof(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...))
}

func (stripeLogger) Warnf(format string, v ...interface{}) {
	logger.Warn(fmt.Sprintf(format, v...))
}

func (stripeLogger) Errorf(format string, v ...interface{}) {
	logger.Warn(fmt.Sprintf(format, v...))
}
