package gateway_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbook/config"
	"tourbook/internal/domains/payment/gateway"
)

func newTestGateway() gateway.Gateway {
	cfg := &config.Config{}
	cfg.Payment.SecretKey = "test-secret"
	cfg.Payment.ReturnURL = "https://example.com/v1/payments/return"

	return gateway.NewVNPay(cfg)
}

func TestVNPayRoundTrip(t *testing.T) {
	g := newTestGateway()

	rawURL, err := g.BuildPaymentURL("PAY-123", 950000)
	require.NoError(t, err)

	params, err := url.ParseQuery(strings.TrimPrefix(rawURL, "?"))
	require.NoError(t, err)

	// Simulate a successful provider redirect using the signed params.
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_TransactionNo", "gw-txn-1")
	params.Del("vnp_SecureHash")

	// Re-sign by building a second URL with the same payload is not possible
	// here, so verify failure paths and the signature guard instead.
	_, err = g.VerifyReturn(params)
	assert.Error(t, err, "unsigned params must be rejected")
}

func TestVNPayVerifyReturn(t *testing.T) {
	g := newTestGateway()

	rawURL, err := g.BuildPaymentURL("PAY-123", 950000)
	require.NoError(t, err)

	signed, err := url.ParseQuery(strings.TrimPrefix(rawURL, "?"))
	require.NoError(t, err)

	t.Run("valid signature", func(t *testing.T) {
		res, err := g.VerifyReturn(signed)
		require.NoError(t, err)
		assert.Equal(t, "PAY-123", res.PaymentCode)
		assert.InDelta(t, 950000, res.Amount, 0.001)
		assert.False(t, res.Success, "no response code means not successful")
	})

	t.Run("tampered amount", func(t *testing.T) {
		tampered := url.Values{}
		for k, v := range signed {
			tampered[k] = v
		}
		tampered.Set("vnp_Amount", "100")

		_, err := g.VerifyReturn(tampered)
		assert.Error(t, err)
	})

	t.Run("missing signature", func(t *testing.T) {
		unsigned := url.Values{}
		unsigned.Set("vnp_TxnRef", "PAY-123")

		_, err := g.VerifyReturn(unsigned)
		assert.Error(t, err)
	})
}
