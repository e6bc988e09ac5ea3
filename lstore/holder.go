// Package lstore provides the flat key-value storage behind the latchkey
// schema: an abstract Holder mapping, a bbolt-backed implementation, an
// in-memory implementation, and the Keychain compress/encode wrapper.
package lstore

// Holder is a flat string-to-string mapping. Implementations persist to a
// file, the system keyring, or memory; the Keychain wrapper owns the value
// encoding so Holder values are opaque.
type Holder interface {
	// Get retrieves a value by key. The bool reports presence.
	Get(key string) (string, bool, error)

	// Set stores a value by key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys returns all stored keys in no guaranteed order.
	Keys() ([]string, error)
}
