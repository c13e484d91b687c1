package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"overcooked-payments/payment-svc/internal/domain"
)

const (
	HeaderSignature = "X-Signature"
	HeaderRequestID = "X-Request-Id"
)

// parseSignatureHeader splits "ts=...,v1=..." into its parts. Unknown keys are
// ignored; both ts and v1 must be present.
func parseSignatureHeader(header string) (ts, v1 string, ok bool) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1, ts != "" && v1 != ""
}

func signatureManifest(paymentID, requestID, ts string) string {
	return "id:" + paymentID + ";request-id:" + requestID + ";ts:" + ts + ";"
}

// SignManifest returns the hex HMAC-SHA256 of the notification manifest.
func SignManifest(secret, paymentID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureManifest(paymentID, requestID, ts)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the provider's x-signature header for a payment
// notification. Every failure returns ErrInvalidSignature.
func VerifySignature(secret, signatureHeader, requestID, paymentID string) error {
	if signatureHeader == "" || requestID == "" {
		return domain.ErrInvalidSignature
	}
	ts, v1, ok := parseSignatureHeader(signatureHeader)
	if !ok {
		return domain.ErrInvalidSignature
	}

	got, err := hex.DecodeString(strings.ToLower(v1))
	if err != nil {
		return domain.ErrInvalidSignature
	}
	want, _ := hex.DecodeString(SignManifest(secret, paymentID, requestID, ts))
	if !hmac.Equal(got, want) {
		return domain.ErrInvalidSignature
	}
	return nil
}
