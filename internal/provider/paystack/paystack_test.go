package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/config"
)

func TestValidSignature(t *testing.T) {
	c := NewClient(config.PaystackConfig{SecretKey: "sk_test_secret"}, zap.NewNop())
	payload := []byte(`{"event":"charge.success","data":{"reference":"psk_ref_1"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	if !c.ValidSignature(payload, signature) {
		t.Fatal("valid signature rejected")
	}
	if c.ValidSignature([]byte(`{"event":"charge.success"}`), signature) {
		t.Fatal("tampered payload accepted")
	}
	if c.ValidSignature(payload, "deadbeef") {
		t.Fatal("bogus signature accepted")
	}
}
