package intent

// CreateRequest describes a payment intent. Amount is in minor units.
type CreateRequest struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Intent is the subset of the Stripe payment intent the checkout page needs.
type Intent struct {
	ID           string
	Amount       int64
	Currency     string
	Status       string
	ClientSecret string
}
