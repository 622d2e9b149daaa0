package intent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{SecretKey: "sk_test", BaseURL: server.URL, Currency: "usd"})
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://localhost"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewClient(Config{SecretKey: "sk_test", Currency: "usd", MaxNetworkRetries: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCreatePaymentIntent_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "15000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "7", r.PostForm.Get("metadata[cart_id]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":15000,"currency":"usd","status":"requires_payment_method","client_secret":"pi_1_secret"}`))
	})

	intent, err := client.CreatePaymentIntent(context.Background(), CreateRequest{
		Amount:   15000,
		Metadata: map[string]string{"cart_id": "7"},
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, int64(15000), intent.Amount)
	assert.Equal(t, "usd", intent.Currency)
	assert.Equal(t, "requires_payment_method", intent.Status)
}

func TestCreatePaymentIntent_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"bad request", http.StatusBadRequest, ErrInvalidRequest},
		{"server error", http.StatusInternalServerError, ErrPaymentFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"nope"}}`))
			})

			_, err := client.CreatePaymentIntent(context.Background(), CreateRequest{Amount: 100})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestCreatePaymentIntent_ProviderUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := NewClient(Config{SecretKey: "sk_test", BaseURL: server.URL, Currency: "usd"})
	require.NoError(t, err)

	_, err = client.CreatePaymentIntent(context.Background(), CreateRequest{Amount: 100})
	assert.ErrorIs(t, err, ErrNetworkError)
}

func TestCreatePaymentIntent_RejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called")
	})

	_, err := client.CreatePaymentIntent(context.Background(), CreateRequest{Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
