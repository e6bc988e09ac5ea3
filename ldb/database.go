// Package ldb implements the credential schema over the flat keychain:
// four key families per named entry, existence and uniqueness rules,
// referential integrity between jump servers and the entries that bounce
// through them, and the display ordering pass for chained jumps.
package ldb

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/latchkey/latchkey"
	"github.com/latchkey/latchkey/lstore"
)

// Key-family prefixes. Every storage key is a two-character prefix plus the
// entry name; the version sentinel is the only unprefixed key.
const (
	PrefixPasskey = "$!"
	PrefixAuth    = "A!"
	PrefixHost    = "h!"
	PrefixJump    = "j!"
)

// Database enforces the entry schema on top of a Keychain. An entry exists
// iff its passkey key exists; an existing entry always has an authority
// key; host and jump keys are optional. Callers go through Database for
// every mutation so the cross-key rules hold.
type Database struct {
	kc  *lstore.Keychain
	log *slog.Logger
}

// New wraps a keychain. A nil logger discards debug output.
func New(kc *lstore.Keychain, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Database{kc: kc, log: logger}
}

// Entry is one named credential record as enumerated from storage.
type Entry struct {
	Name string
	Auth *latchkey.Authority
	Host string
	Jump *latchkey.Authority
}

// NamedValue pairs a decoded stored value with its entry name.
type NamedValue struct {
	Name  string
	Value string
}

// Exists reports whether an entry named name is stored.
func (d *Database) Exists(name string) (bool, error) {
	return d.kc.Has(PrefixPasskey + name)
}

// Add creates a new entry. The passkey and authority are required; host and
// jumpAuth may be empty and nil. A jump authority must match the stored
// authority of some other entry. The 2-4 key writes are staged: a failure
// partway removes the keys already written so no partial entry survives.
func (d *Database) Add(name string, passkey *latchkey.Passkey, auth *latchkey.Authority, host string, jumpAuth *latchkey.Authority) error {
	if err := latchkey.ValidateName(name); err != nil {
		return err
	}
	if passkey == nil {
		return fmt.Errorf("%w: missing passkey", latchkey.ErrValidation)
	}
	if auth == nil {
		return fmt.Errorf("%w: missing authority", latchkey.ErrValidation)
	}
	ok, err := d.Exists(name)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %q", latchkey.ErrDuplicateEntry, name)
	}
	if jumpAuth != nil {
		if err := d.checkJumpTarget(jumpAuth, name); err != nil {
			return err
		}
	}

	type subWrite struct {
		key   string
		write func() error
	}
	writes := []subWrite{
		{PrefixPasskey + name, func() error { return d.AddPasskey(name, passkey) }},
		{PrefixAuth + name, func() error { return d.AddAuth(name, auth) }},
	}
	if host != "" {
		writes = append(writes, subWrite{PrefixHost + name, func() error { return d.AddHost(name, host) }})
	}
	if jumpAuth != nil {
		writes = append(writes, subWrite{PrefixJump + name, func() error { return d.AddJump(name, jumpAuth) }})
	}

	var written []string
	for _, w := range writes {
		if err := w.write(); err != nil {
			for i := len(written) - 1; i >= 0; i-- {
				if _, rerr := d.kc.Remove(written[i]); rerr != nil {
					d.log.Warn("rollback failed", "key", written[i], "error", rerr)
				}
			}
			return err
		}
		written = append(written, w.key)
	}
	d.log.Debug("entry added", "name", name, "auth", auth.Read(true), "jump", jumpAuth != nil)
	return nil
}

// AddPasskey writes the passkey key for name. Fails on an existing key.
func (d *Database) AddPasskey(name string, passkey *latchkey.Passkey) error {
	return d.kc.Add(PrefixPasskey+name, string(passkey.Bytes()))
}

// AddAuth writes the authority key for name. Fails on an existing key.
func (d *Database) AddAuth(name string, auth *latchkey.Authority) error {
	return d.kc.Add(PrefixAuth+name, auth.String())
}

// AddHost writes the host-label key for name. Fails on an existing key.
func (d *Database) AddHost(name, host string) error {
	return d.kc.Add(PrefixHost+name, host)
}

// AddJump writes the jump-authority key for name. Fails on an existing key.
func (d *Database) AddJump(name string, auth *latchkey.Authority) error {
	return d.kc.Add(PrefixJump+name, auth.String())
}

// UpdatePasskey replaces the secret of an existing entry.
func (d *Database) UpdatePasskey(name string, passkey *latchkey.Passkey) error {
	if passkey == nil || len(passkey.Secret()) == 0 {
		return fmt.Errorf("%w: empty passkey", latchkey.ErrValidation)
	}
	ok, err := d.Exists(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no entry named %q", latchkey.ErrNotFound, name)
	}
	return d.kc.Update(PrefixPasskey+name, string(passkey.Bytes()))
}

// UpdateJumpAuth sets or replaces the jump authority of an existing entry.
// The new jump authority must match the stored authority of another entry.
func (d *Database) UpdateJumpAuth(name string, auth *latchkey.Authority) error {
	if auth == nil {
		return fmt.Errorf("%w: missing jump authority", latchkey.ErrValidation)
	}
	ok, err := d.Exists(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no entry named %q", latchkey.ErrNotFound, name)
	}
	if err := d.checkJumpTarget(auth, name); err != nil {
		return err
	}
	return d.kc.Update(PrefixJump+name, auth.String())
}

// Remove deletes an entry and all of its keys. It refuses while any other
// entry still bounces through this entry's authority. References go first
// so a partial failure cannot leave a jump key pointing at a deleted
// authority.
func (d *Database) Remove(name string) error {
	ok, err := d.Exists(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no entry named %q", latchkey.ErrNotFound, name)
	}
	auth, err := d.FetchAuth(name)
	if err != nil {
		return err
	}
	deps, err := d.dependents(auth.Signature(), name)
	if err != nil {
		return err
	}
	if len(deps) > 0 {
		return fmt.Errorf("%w: %s still bounce through %q", latchkey.ErrDependentsExist, strings.Join(deps, ", "), name)
	}

	for _, key := range []string{PrefixJump + name, PrefixHost + name} {
		ok, err := d.kc.Has(key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, err := d.kc.Remove(key); err != nil {
			return err
		}
	}
	if _, err := d.kc.Remove(PrefixAuth + name); err != nil {
		return err
	}
	if _, err := d.kc.Remove(PrefixPasskey + name); err != nil {
		return err
	}
	d.log.Debug("entry removed", "name", name)
	return nil
}

// FetchAuth returns the stored authority of an entry by point lookup.
func (d *Database) FetchAuth(name string) (*latchkey.Authority, error) {
	value, err := d.kc.GetValue(PrefixAuth + name)
	if err != nil {
		return nil, err
	}
	return latchkey.Recover(value)
}

// FetchHost returns the stored host label of an entry by point lookup.
func (d *Database) FetchHost(name string) (string, error) {
	return d.kc.GetValue(PrefixHost + name)
}

// FetchJump returns the stored jump authority of an entry by point lookup.
func (d *Database) FetchJump(name string) (*latchkey.Authority, error) {
	value, err := d.kc.GetValue(PrefixJump + name)
	if err != nil {
		return nil, err
	}
	return latchkey.Recover(value)
}

// FetchPasskey returns the tagged secret of an entry by point lookup.
func (d *Database) FetchPasskey(name string) (*latchkey.Passkey, error) {
	value, err := d.kc.GetValue(PrefixPasskey + name)
	if err != nil {
		return nil, err
	}
	return latchkey.ParsePasskey([]byte(value))
}

// QueryAuth enumerates the authority family, ordered by name.
func (d *Database) QueryAuth() ([]NamedValue, error) {
	return d.queryFamily(PrefixAuth)
}

// QueryHost enumerates the host family, ordered by name.
func (d *Database) QueryHost() ([]NamedValue, error) {
	return d.queryFamily(PrefixHost)
}

// QueryJump enumerates the jump family, ordered by name.
func (d *Database) QueryJump() ([]NamedValue, error) {
	return d.queryFamily(PrefixJump)
}

func (d *Database) queryFamily(prefix string) ([]NamedValue, error) {
	keys, err := d.kc.Lookup(prefix, false)
	if err != nil {
		return nil, err
	}
	rows := make([]NamedValue, 0, len(keys))
	for _, key := range keys {
		value, err := d.kc.GetValue(key)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("%w: empty value under %q", latchkey.ErrCorruptValue, key)
		}
		rows = append(rows, NamedValue{Name: strings.TrimPrefix(key, prefix), Value: value})
	}
	return rows, nil
}

// QueryAll enumerates every entry, ordered by name. The passkey family is
// the canonical entry list; the other families are read by point lookup
// per name. Secrets are not included.
func (d *Database) QueryAll() ([]Entry, error) {
	keys, err := d.kc.Lookup(PrefixPasskey, false)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, PrefixPasskey)
		auth, err := d.FetchAuth(name)
		if err != nil {
			if errors.Is(err, latchkey.ErrNotFound) {
				return nil, fmt.Errorf("%w: entry %q has no authority", latchkey.ErrCorruptValue, name)
			}
			return nil, err
		}
		host, err := d.FetchHost(name)
		if err != nil && !errors.Is(err, latchkey.ErrNotFound) {
			return nil, err
		}
		var jump *latchkey.Authority
		jump, err = d.FetchJump(name)
		if err != nil {
			if !errors.Is(err, latchkey.ErrNotFound) {
				return nil, err
			}
			jump = nil
		}
		entries = append(entries, Entry{Name: name, Auth: auth, Host: host, Jump: jump})
	}
	return entries, nil
}

// Lookup returns the authority, host label and tagged secret of one entry.
func (d *Database) Lookup(name string) (*latchkey.Authority, string, *latchkey.Passkey, error) {
	ok, err := d.Exists(name)
	if err != nil {
		return nil, "", nil, err
	}
	if !ok {
		return nil, "", nil, fmt.Errorf("%w: no entry named %q", latchkey.ErrNotFound, name)
	}
	auth, err := d.FetchAuth(name)
	if err != nil {
		return nil, "", nil, err
	}
	host, err := d.FetchHost(name)
	if err != nil && !errors.Is(err, latchkey.ErrNotFound) {
		return nil, "", nil, err
	}
	passkey, err := d.FetchPasskey(name)
	if err != nil {
		return nil, "", nil, err
	}
	return auth, host, passkey, nil
}

// checkJumpTarget verifies that a jump authority matches the stored
// authority of some entry other than exclude.
func (d *Database) checkJumpTarget(jump *latchkey.Authority, exclude string) error {
	rows, err := d.QueryAuth()
	if err != nil {
		return err
	}
	sig := jump.Signature()
	for _, row := range rows {
		if row.Name == exclude {
			continue
		}
		if latchkey.Sign(row.Value) == sig {
			return nil
		}
	}
	return fmt.Errorf("%w: jump authority %s does not match any stored entry", latchkey.ErrValidation, jump.Read(true))
}

// dependents returns the names of entries whose jump authority signature
// matches sig, excluding the named entry itself, sorted.
func (d *Database) dependents(sig, exclude string) ([]string, error) {
	rows, err := d.QueryJump()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, row := range rows {
		if row.Name == exclude {
			continue
		}
		if latchkey.Sign(row.Value) == sig {
			names = append(names, row.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}
