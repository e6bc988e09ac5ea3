package lstore

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/latchkey/latchkey"
)

// Keychain wraps a Holder with the stored-value codec: values are
// compressed with zlib and base64-encoded on write, decoded and
// decompressed on read. Keys pass through untouched.
type Keychain struct {
	holder Holder
	log    *slog.Logger
}

// NewKeychain wraps holder. A nil logger discards warnings.
func NewKeychain(holder Holder, logger *slog.Logger) *Keychain {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Keychain{holder: holder, log: logger}
}

// Add stores a value under a key that must not already exist.
func (k *Keychain) Add(key, value string) error {
	ok, err := k.Has(key)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: keychain already holds %q", latchkey.ErrDuplicateKey, key)
	}
	return k.Update(key, value)
}

// Update stores a value under a key, replacing any previous value.
func (k *Keychain) Update(key, value string) error {
	encoded, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}
	return k.holder.Set(key, encoded)
}

// Has reports whether the keychain holds key.
func (k *Keychain) Has(key string) (bool, error) {
	_, ok, err := k.holder.Get(key)
	return ok, err
}

// Get returns the raw encoded value for key as stored, without decoding.
// The bool reports presence.
func (k *Keychain) Get(key string) (string, bool, error) {
	return k.holder.Get(key)
}

// GetValue returns the decoded value for key.
func (k *Keychain) GetValue(key string) (string, error) {
	encoded, ok, err := k.holder.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: keychain does not hold %q", latchkey.ErrNotFound, key)
	}
	value, err := decodeValue(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: cannot decode value for %q", latchkey.ErrCorruptValue, key)
	}
	return value, nil
}

// Remove deletes key and returns its previous raw encoded value. Removing
// an absent key is a warn-level no-op.
func (k *Keychain) Remove(key string) (string, error) {
	previous, ok, err := k.holder.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		k.log.Warn("keychain cannot remove an unset key", "key", key)
		return "", nil
	}
	if err := k.holder.Delete(key); err != nil {
		return "", err
	}
	return previous, nil
}

// Lookup returns the keys matching prefix, sorted. With exact set, only a
// full-key match is returned. The underlying holder order is never exposed.
func (k *Keychain) Lookup(prefix string, exact bool) ([]string, error) {
	keys, err := k.holder.Keys()
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, key := range keys {
		if key == prefix || (!exact && strings.HasPrefix(key, prefix)) {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)
	return matched, nil
}

func encodeValue(raw string) (string, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(raw)); err != nil {
		zw.Close()
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decodeValue(stored string) (string, error) {
	compressed, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return "", err
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
