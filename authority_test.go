package latchkey_test

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/latchkey/latchkey"
)

// failingResolver simulates an environment without name resolution, forcing
// the literal-address fallback.
func failingResolver(host string) (netip.Addr, error) {
	return netip.Addr{}, errors.New("resolver unavailable")
}

func TestAuthorityLiteralFallback(t *testing.T) {
	a, err := latchkey.ResolveAuthority(failingResolver, "127.0.0.1", 22, "root", "ssh")
	if err != nil {
		t.Fatalf("ResolveAuthority: %v", err)
	}
	if got := a.HostIP4(); got != "127.0.0.1" {
		t.Errorf("HostIP4 = %q, want 127.0.0.1", got)
	}
	if a.Port() != 22 || a.User() != "root" || a.Scheme() != "ssh" {
		t.Errorf("unexpected fields: %d %q %q", a.Port(), a.User(), a.Scheme())
	}
}

func TestAuthorityResolver(t *testing.T) {
	resolver := func(host string) (netip.Addr, error) {
		if host != "db.internal" {
			t.Fatalf("resolver got %q", host)
		}
		return netip.MustParseAddr("10.0.0.7"), nil
	}
	a, err := latchkey.ResolveAuthority(resolver, "db.internal", 5432, "svc", "pgql")
	if err != nil {
		t.Fatalf("ResolveAuthority: %v", err)
	}
	if got := a.HostIP4(); got != "10.0.0.7" {
		t.Errorf("HostIP4 = %q, want 10.0.0.7", got)
	}
}

func TestAuthorityValidation(t *testing.T) {
	cases := []struct {
		name   string
		host   string
		port   int
		user   string
		scheme string
	}{
		{"unresolvable host", "not-an-address", 22, "root", "ssh"},
		{"ipv6 host", "::1", 22, "root", "ssh"},
		{"port zero", "127.0.0.1", 0, "root", "ssh"},
		{"port too large", "127.0.0.1", 70000, "root", "ssh"},
		{"empty user", "127.0.0.1", 22, "", "ssh"},
		{"long user", "127.0.0.1", 22, "a-very-long-user-name-over-32-characters", "ssh"},
		{"empty scheme", "127.0.0.1", 22, "root", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := latchkey.ResolveAuthority(failingResolver, c.host, c.port, c.user, c.scheme)
			if !errors.Is(err, latchkey.ErrValidation) {
				t.Errorf("got %v, want ErrValidation", err)
			}
		})
	}
}

func TestAuthoritySignatureDeterministic(t *testing.T) {
	a, err := latchkey.ResolveAuthority(failingResolver, "127.0.0.1", 22, "root", "ssh")
	if err != nil {
		t.Fatalf("ResolveAuthority: %v", err)
	}
	b, err := latchkey.ResolveAuthority(failingResolver, "127.0.0.1", 22, "root", "ssh")
	if err != nil {
		t.Fatalf("ResolveAuthority: %v", err)
	}
	if a.Signature() != b.Signature() {
		t.Errorf("signatures differ: %q vs %q", a.Signature(), b.Signature())
	}
	if !a.Equal(b) {
		t.Error("Equal = false for identical authorities")
	}
	if a.Signature() != latchkey.Sign(a.String()) {
		t.Errorf("Signature disagrees with Sign(String())")
	}
}

func TestAuthorityRecoverRoundTrip(t *testing.T) {
	a, err := latchkey.ResolveAuthority(failingResolver, "192.168.1.10", 443, "web", "https")
	if err != nil {
		t.Fatalf("ResolveAuthority: %v", err)
	}
	b, err := latchkey.Recover(a.Read(false))
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if b.Host() != a.Host() || b.Port() != a.Port() || b.User() != a.User() || b.Scheme() != a.Scheme() {
		t.Errorf("round trip mismatch: %s vs %s", b.Read(false), a.Read(false))
	}
}

func TestAuthorityRecoverRejectsBadInput(t *testing.T) {
	for _, s := range []string{
		"",
		"1:2:user",
		"1:2:user:ssh:extra",
		"notanumber:22:root:ssh",
		"3232235786:notaport:root:ssh",
	} {
		if _, err := latchkey.Recover(s); !errors.Is(err, latchkey.ErrValidation) {
			t.Errorf("Recover(%q) = %v, want ErrValidation", s, err)
		}
	}
}

func TestAuthorityRead(t *testing.T) {
	a, err := latchkey.ResolveAuthority(failingResolver, "127.0.0.1", 22, "root", "ssh")
	if err != nil {
		t.Fatalf("ResolveAuthority: %v", err)
	}
	if got := a.Read(true); got != "ssh://root@127.0.0.1:22" {
		t.Errorf("Read(true) = %q", got)
	}
	if got := a.Read(false); got != "2130706433:22:root:ssh" {
		t.Errorf("Read(false) = %q", got)
	}
}
