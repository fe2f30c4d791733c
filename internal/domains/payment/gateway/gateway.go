package gateway

//go:generate go run go.uber.org/mock/mockgen -source=./gateway.go -destination=./mocks/gateway_mock.go -package=mocks

import "net/url"

// VerifyResult is the gateway's verdict on a return redirect.
type VerifyResult struct {
	PaymentCode string
	TxnID       string
	Amount      float64
	Success     bool
}

// Gateway abstracts the external payment provider. Implementations verify
// return redirects with the provider's signature scheme so forged callbacks
// can never mark a payment as paid.
type Gateway interface {
	BuildPaymentURL(paymentCode string, amount float64) (string, error)
	VerifyReturn(params url.Values) (VerifyResult, error)
}
