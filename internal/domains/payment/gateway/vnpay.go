package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"tourbook/config"
	"tourbook/shared/failure"
)

const (
	paramAmount       = "vnp_Amount"
	paramTxnRef       = "vnp_TxnRef"
	paramTransID      = "vnp_TransactionNo"
	paramResponseCode = "vnp_ResponseCode"
	paramSecureHash   = "vnp_SecureHash"

	responseCodeSuccess = "00"

	// VNPay expresses amounts in minor units (x100).
	amountMultiplier = 100
)

type vnpayGateway struct {
	secretKey string
	returnURL string
}

func NewVNPay(cfg *config.Config) Gateway {
	return &vnpayGateway{
		secretKey: cfg.Payment.SecretKey,
		returnURL: cfg.Payment.ReturnURL,
	}
}

func (g *vnpayGateway) BuildPaymentURL(paymentCode string, amount float64) (string, error) {
	params := url.Values{}
	params.Set(paramTxnRef, paymentCode)
	params.Set(paramAmount, strconv.FormatInt(int64(amount*amountMultiplier), 10))
	params.Set("vnp_ReturnUrl", g.returnURL)

	signature := g.sign(params)
	params.Set(paramSecureHash, signature)

	return "?" + params.Encode(), nil
}

func (g *vnpayGateway) VerifyReturn(params url.Values) (VerifyResult, error) {
	receivedHash := params.Get(paramSecureHash)
	if receivedHash == "" {
		return VerifyResult{}, failure.BadRequestFromString("missing gateway signature") //nolint:wrapcheck
	}

	toSign := url.Values{}
	for key, values := range params {
		if key == paramSecureHash || key == "vnp_SecureHashType" {
			continue
		}

		for _, value := range values {
			toSign.Add(key, value)
		}
	}

	expected := g.sign(toSign)
	if !hmac.Equal([]byte(expected), []byte(receivedHash)) {
		return VerifyResult{}, failure.BadRequestFromString("invalid gateway signature") //nolint:wrapcheck
	}

	amount, err := strconv.ParseFloat(params.Get(paramAmount), 64)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("invalid gateway amount: %w", err)
	}

	return VerifyResult{
		PaymentCode: params.Get(paramTxnRef),
		TxnID:       params.Get(paramTransID),
		Amount:      amount / amountMultiplier,
		Success:     params.Get(paramResponseCode) == responseCodeSuccess,
	}, nil
}

// sign builds the HMAC-SHA512 signature over the params sorted by key.
func (g *vnpayGateway) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+url.QueryEscape(params.Get(key)))
	}

	mac := hmac.New(sha512.New, []byte(g.secretKey))
	mac.Write([]byte(strings.Join(pairs, "&")))

	return hex.EncodeToString(mac.Sum(nil))
}
