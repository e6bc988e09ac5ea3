package latchkey

import (
	"encoding/base64"
	"fmt"
)

// Passkey type tags. These values are storage-format constants: byte 0 of
// every stored secret identifies how the remaining bytes are used.
const (
	TagPassword   byte = '.'
	TagPrivateKey byte = '>'
)

// Kind names for the supported passkey types.
const (
	KindPassword   = "password"
	KindPrivateKey = "privatekey"
)

// minPasskeyLen is the tag byte plus at least one secret byte.
const minPasskeyLen = 2

// Passkey is secret material tagged with its type: a password or the bytes
// of a private key.
type Passkey struct {
	tag    byte
	secret []byte
}

// NewPassword wraps a password secret.
func NewPassword(secret []byte) (*Passkey, error) {
	return newPasskey(TagPassword, secret)
}

// NewPrivateKey wraps private-key bytes.
func NewPrivateKey(secret []byte) (*Passkey, error) {
	return newPasskey(TagPrivateKey, secret)
}

func newPasskey(tag byte, secret []byte) (*Passkey, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty passkey", ErrValidation)
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &Passkey{tag: tag, secret: s}, nil
}

// ParsePasskey splits a stored secret into its tag and raw bytes.
func ParsePasskey(raw []byte) (*Passkey, error) {
	if len(raw) < minPasskeyLen {
		return nil, fmt.Errorf("%w: secret too small", ErrCorruptValue)
	}
	switch raw[0] {
	case TagPassword, TagPrivateKey:
	default:
		return nil, fmt.Errorf("%w: secret is neither password nor private key", ErrCorruptValue)
	}
	s := make([]byte, len(raw)-1)
	copy(s, raw[1:])
	return &Passkey{tag: raw[0], secret: s}, nil
}

// Tag returns the type tag byte.
func (p *Passkey) Tag() byte { return p.tag }

// Kind returns the human-readable passkey type name.
func (p *Passkey) Kind() string {
	if p.tag == TagPrivateKey {
		return KindPrivateKey
	}
	return KindPassword
}

// IsPassword reports whether the passkey is a password.
func (p *Passkey) IsPassword() bool { return p.tag == TagPassword }

// IsPrivateKey reports whether the passkey is a private key.
func (p *Passkey) IsPrivateKey() bool { return p.tag == TagPrivateKey }

// Secret returns the raw secret bytes without the tag.
func (p *Passkey) Secret() []byte { return p.secret }

// Bytes returns the storage form: tag byte followed by the secret.
func (p *Passkey) Bytes() []byte {
	b := make([]byte, 0, len(p.secret)+1)
	b = append(b, p.tag)
	return append(b, p.secret...)
}

// Masked returns a base64 copy of the secret, safe to echo to a terminal.
func (p *Passkey) Masked() string {
	return base64.StdEncoding.EncodeToString(p.secret)
}
