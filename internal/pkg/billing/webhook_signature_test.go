package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestVerifyStripeWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"subscription.updated"}`)
	secret := "test-secret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	validSig := hex.EncodeToString(mac.Sum(nil))

	if !VerifyStripeWebhookSignature(payload, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}
	if !VerifyStripeWebhookSignature(payload, strings.ToUpper(validSig), secret) {
		t.Fatalf("expected upper-case hex to validate")
	}
	if !VerifyStripeWebhookSignature(payload, "sha256="+validSig, secret) {
		t.Fatalf("expected sha256= prefixed signature to validate")
	}
	if VerifyStripeWebhookSignature(payload, "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifyStripeWebhookSignature(payload, "not-hex", secret) {
		t.Fatalf("expected undecodable signature to fail")
	}
	if VerifyStripeWebhookSignature(payload, "", secret) {
		t.Fatalf("expected missing signature to fail when a secret is configured")
	}
	if VerifyStripeWebhookSignature([]byte(`{"id":"evt_2"}`), validSig, secret) {
		t.Fatalf("expected signature over a different body to fail")
	}
}

func TestVerifyStripeWebhookSignature_NoSecret(t *testing.T) {
	payload := []byte(`{"anything":true}`)
	for _, sig := range []string{"", "garbage", "deadbeef"} {
		if !VerifyStripeWebhookSignature(payload, sig, "") {
			t.Fatalf("expected degraded mode to accept signature %q", sig)
		}
	}
}

func TestSignStripePayloadRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_3"}`)
	sig := SignStripePayload(payload, "whsec")
	if !VerifyStripeWebhookSignature(payload, sig, "whsec") {
		t.Fatalf("expected SignStripePayload output to verify")
	}
}
