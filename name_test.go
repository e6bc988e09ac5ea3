package latchkey_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/latchkey/latchkey"
)

func TestValidateName(t *testing.T) {
	for _, name := range []string{"alpha-server", "db.internal_1", "0123456789"} {
		if err := latchkey.ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "short", "-starts-with-dash", "has spaces in it", "x"} {
		if err := latchkey.ValidateName(name); !errors.Is(err, latchkey.ErrValidation) {
			t.Errorf("ValidateName(%q) = %v, want ErrValidation", name, err)
		}
	}
}

func TestGenerateName(t *testing.T) {
	hex16 := regexp.MustCompile(`^[0-9a-f]{16}$`)
	a := latchkey.GenerateName()
	b := latchkey.GenerateName()
	if !hex16.MatchString(a) {
		t.Errorf("GenerateName() = %q, want 16 lowercase hex", a)
	}
	if a == b {
		t.Errorf("consecutive generated names collide: %q", a)
	}
	if err := latchkey.ValidateName(a); err != nil {
		t.Errorf("generated name fails validation: %v", err)
	}
}
