package latchkey_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/latchkey/latchkey"
)

func TestPasskeyPassword(t *testing.T) {
	p, err := latchkey.NewPassword([]byte("hunter2"))
	if err != nil {
		t.Fatalf("NewPassword: %v", err)
	}
	if !p.IsPassword() || p.IsPrivateKey() {
		t.Error("wrong passkey type")
	}
	if p.Kind() != latchkey.KindPassword {
		t.Errorf("Kind = %q", p.Kind())
	}
	if !bytes.Equal(p.Bytes(), []byte(".hunter2")) {
		t.Errorf("Bytes = %q", p.Bytes())
	}
}

func TestPasskeyParseRoundTrip(t *testing.T) {
	p, err := latchkey.NewPrivateKey([]byte("-----BEGIN KEY-----"))
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	q, err := latchkey.ParsePasskey(p.Bytes())
	if err != nil {
		t.Fatalf("ParsePasskey: %v", err)
	}
	if !q.IsPrivateKey() {
		t.Error("tag lost in round trip")
	}
	if !bytes.Equal(q.Secret(), p.Secret()) {
		t.Errorf("secret lost in round trip: %q", q.Secret())
	}
}

func TestPasskeyRejectsEmptySecret(t *testing.T) {
	if _, err := latchkey.NewPassword(nil); !errors.Is(err, latchkey.ErrValidation) {
		t.Errorf("NewPassword(nil) = %v, want ErrValidation", err)
	}
	if _, err := latchkey.NewPrivateKey([]byte{}); !errors.Is(err, latchkey.ErrValidation) {
		t.Errorf("NewPrivateKey(empty) = %v, want ErrValidation", err)
	}
}

func TestPasskeyParseRejectsCorrupt(t *testing.T) {
	for _, raw := range [][]byte{nil, {'.'}, []byte("xsecret")} {
		if _, err := latchkey.ParsePasskey(raw); !errors.Is(err, latchkey.ErrCorruptValue) {
			t.Errorf("ParsePasskey(%q) = %v, want ErrCorruptValue", raw, err)
		}
	}
}

func TestPasskeyMasked(t *testing.T) {
	p, err := latchkey.NewPassword([]byte("secret"))
	if err != nil {
		t.Fatalf("NewPassword: %v", err)
	}
	if p.Masked() == "secret" {
		t.Error("Masked leaked the raw secret")
	}
	if p.Masked() != "c2VjcmV0" {
		t.Errorf("Masked = %q", p.Masked())
	}
}
