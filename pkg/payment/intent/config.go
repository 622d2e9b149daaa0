package intent

// Config represents the configuration for the payment intent client
type Config struct {
	// SecretKey authenticates the merchant against Stripe
	SecretKey string

	// BaseURL overrides the API root, e.g. https://api.stripe.com
	BaseURL string

	// Currency is the ISO 4217 code used when a request does not set one
	Currency string

	// MaxNetworkRetries is how often the SDK retries a failed request
	MaxNetworkRetries int64
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SecretKey == "" || c.Currency == "" || c.MaxNetworkRetries < 0 {
		return ErrInvalidConfig
	}
	return nil
}
