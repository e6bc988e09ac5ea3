package lmanage

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/latchkey/latchkey"
	"github.com/latchkey/latchkey/ldb"
)

// Manager runs management commands against one database. It owns authority
// assembly, secret input and rendering; every storage mutation goes through
// the database so the schema invariants hold.
type Manager struct {
	db      *ldb.Database
	secrets SecretSource
	display *Display
	scheme  string
	log     *slog.Logger
}

// ManagerOptions configure a Manager. Zero values pick the production
// defaults: terminal secret input, stdout display, "tcp" scheme.
type ManagerOptions struct {
	Secrets       SecretSource
	Display       *Display
	DefaultScheme string
	Logger        *slog.Logger
}

// NewManager wraps a database.
func NewManager(db *ldb.Database, opts ManagerOptions) *Manager {
	if opts.Secrets == nil {
		opts.Secrets = &TerminalSource{In: os.Stdin, Out: os.Stderr}
	}
	if opts.Display == nil {
		opts.Display = NewDisplay(os.Stdout)
	}
	if opts.DefaultScheme == "" {
		opts.DefaultScheme = latchkey.DefaultScheme
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		db:      db,
		secrets: opts.Secrets,
		display: opts.Display,
		scheme:  opts.DefaultScheme,
		log:     opts.Logger,
	}
}

func (m *Manager) runInit(c Init) error {
	m.display.Notice("store ready at %s", c.Path)
	return nil
}

func (m *Manager) runAppend(c Append) error {
	name := c.Name
	if name == "" {
		name = latchkey.GenerateName()
	}
	auth, err := m.buildAuthority(c.Host, c.Port, c.User, c.Scheme)
	if err != nil {
		return err
	}
	var jump *latchkey.Authority
	if c.JumpName != "" {
		jump, err = m.db.FetchAuth(c.JumpName)
		if err != nil {
			return fmt.Errorf("jump server %q: %w", c.JumpName, err)
		}
	}
	passkey, err := m.readPasskey(c.KeyFile, fmt.Sprintf("secret for %s", name))
	if err != nil {
		return err
	}
	if err := m.db.Add(name, passkey, auth, c.Host, jump); err != nil {
		return err
	}
	m.display.Added(name, auth)
	return nil
}

func (m *Manager) runUpdate(c Update) error {
	if c.JumpName != "" {
		jump, err := m.db.FetchAuth(c.JumpName)
		if err != nil {
			return fmt.Errorf("jump server %q: %w", c.JumpName, err)
		}
		if err := m.db.UpdateJumpAuth(c.Name, jump); err != nil {
			return err
		}
		m.display.Updated(c.Name)
		return nil
	}
	passkey, err := m.readPasskey(c.KeyFile, fmt.Sprintf("new secret for %s", c.Name))
	if err != nil {
		return err
	}
	if err := m.db.UpdatePasskey(c.Name, passkey); err != nil {
		return err
	}
	m.display.Updated(c.Name)
	return nil
}

func (m *Manager) runRemove(c Remove) error {
	if err := m.db.Remove(c.Name); err != nil {
		return err
	}
	m.display.Removed(c.Name)
	return nil
}

func (m *Manager) runLookup(c Lookup) error {
	auth, host, passkey, err := m.db.Lookup(c.Name)
	if err != nil {
		return err
	}
	m.display.Entry(c.Name, auth, host, passkey, c.Reveal)
	return nil
}

func (m *Manager) runRecall(c Recall) error {
	name, err := m.nameBySignature(c.Signature)
	if err != nil {
		return err
	}
	return m.runLookup(Lookup{Name: name, Reveal: c.Reveal})
}

func (m *Manager) runForget(c Forget) error {
	name, err := m.nameBySignature(c.Signature)
	if err != nil {
		return err
	}
	return m.runRemove(Remove{Name: name})
}

func (m *Manager) runList(c List) error {
	entries, err := m.db.QueryAll()
	if err != nil {
		return err
	}
	ordered, err := ldb.Arrange(entries)
	if err != nil {
		return err
	}
	if c.Vertical {
		m.display.ListVertical(ordered)
		return nil
	}
	m.display.List(ordered)
	return nil
}

// nameBySignature scans every entry for a matching authority signature.
// This is the slow path; names remain the primary handle.
func (m *Manager) nameBySignature(sig string) (string, error) {
	entries, err := m.db.QueryAll()
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Auth.Signature() == sig {
			return e.Name, nil
		}
	}
	return "", fmt.Errorf("%w: no entry with signature %q", latchkey.ErrNotFound, sig)
}

// buildAuthority assembles an authority from raw input, filling the missing
// side of port/scheme from the service table.
func (m *Manager) buildAuthority(host string, port int, user, scheme string) (*latchkey.Authority, error) {
	switch {
	case port == 0 && scheme == "":
		return nil, fmt.Errorf("%w: need a port or a scheme for %q", latchkey.ErrValidation, host)
	case port == 0:
		p, err := latchkey.PortFor(scheme)
		if err != nil {
			return nil, err
		}
		port = int(p)
	case scheme == "":
		if port < latchkey.MinPort || port > latchkey.MaxPort {
			return nil, fmt.Errorf("%w: port %d out of range", latchkey.ErrValidation, port)
		}
		scheme = latchkey.SchemeFor(uint16(port))
		if scheme == "" {
			scheme = m.scheme
		}
	}
	return latchkey.NewAuthority(host, port, user, scheme)
}

// readPasskey obtains secret material: a private key when keyFile is set,
// otherwise a password from the secret source.
func (m *Manager) readPasskey(keyFile, prompt string) (*latchkey.Passkey, error) {
	if keyFile != "" {
		secret, err := m.secrets.ReadKeyFile(keyFile)
		if err != nil {
			return nil, err
		}
		return latchkey.NewPrivateKey(secret)
	}
	secret, err := m.secrets.ReadSecret(prompt)
	if err != nil {
		return nil, err
	}
	return latchkey.NewPassword(secret)
}
