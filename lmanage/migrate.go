package lmanage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zip"

	"github.com/latchkey/latchkey"
)

// Archive layout: a zip holding manifest.cbor plus one keys/<name>.key file
// per private-key secret, the whole archive base64-wrapped for transport
// over pipes and pastebins.
const (
	manifestName = "manifest.cbor"
	keyFileDir   = "keys"
)

// exportRecord is one manifest row. Password secrets travel inline;
// private keys travel as separate archive members named by KeyFile.
type exportRecord struct {
	Name    string `cbor:"1,keyasint"`
	Auth    string `cbor:"2,keyasint"`
	Host    string `cbor:"3,keyasint,omitempty"`
	Jump    string `cbor:"4,keyasint,omitempty"`
	Secret  []byte `cbor:"5,keyasint,omitempty"`
	KeyFile string `cbor:"6,keyasint,omitempty"`
}

func (m *Manager) runExport(c Export) error {
	entries, err := m.db.QueryAll()
	if err != nil {
		return err
	}

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	records := make([]exportRecord, 0, len(entries))
	for _, e := range entries {
		passkey, err := m.db.FetchPasskey(e.Name)
		if err != nil {
			return err
		}
		rec := exportRecord{Name: e.Name, Auth: e.Auth.String(), Host: e.Host}
		if e.Jump != nil {
			rec.Jump = e.Jump.String()
		}
		if passkey.IsPrivateKey() {
			rec.KeyFile = fmt.Sprintf("%s/%s.key", keyFileDir, e.Name)
			f, err := zw.Create(rec.KeyFile)
			if err != nil {
				return fmt.Errorf("archive key for %q: %w", e.Name, err)
			}
			if _, err := f.Write(passkey.Secret()); err != nil {
				return fmt.Errorf("archive key for %q: %w", e.Name, err)
			}
		} else {
			rec.Secret = passkey.Secret()
		}
		records = append(records, rec)
	}

	manifest, err := cbor.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	f, err := zw.Create(manifestName)
	if err != nil {
		return err
	}
	if _, err := f.Write(manifest); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	enc := base64.NewEncoder(base64.StdEncoding, c.To)
	if _, err := enc.Write(archive.Bytes()); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.To)
	m.log.Debug("store exported", "entries", len(records))
	return err
}

func (m *Manager) runImport(c Import) error {
	raw, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, newlineStripper{c.From}))
	if err != nil {
		return fmt.Errorf("decode archive: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	records, err := readManifest(zr)
	if err != nil {
		return err
	}

	imported := 0
	// Entries with a jump need their target's authority stored first, so
	// unresolved records are retried on a later pass. A pass with no
	// progress means the remaining jump references cannot resolve.
	pending := records
	for len(pending) > 0 {
		var next []exportRecord
		for _, rec := range pending {
			err := m.importRecord(zr, rec)
			switch {
			case err == nil:
				imported++
			case errors.Is(err, latchkey.ErrDuplicateEntry):
				m.log.Warn("import skipping existing entry", "name", rec.Name)
				m.display.Notice("skipped %s: already stored", rec.Name)
			case errors.Is(err, latchkey.ErrValidation) && rec.Jump != "":
				next = append(next, rec)
			default:
				return fmt.Errorf("import %q: %w", rec.Name, err)
			}
		}
		if len(next) == len(pending) {
			return fmt.Errorf("%w: %d entries reference jump servers not in the archive or store",
				latchkey.ErrValidation, len(next))
		}
		pending = next
	}
	m.display.Notice("imported %d entries", imported)
	return nil
}

func (m *Manager) importRecord(zr *zip.Reader, rec exportRecord) error {
	auth, err := latchkey.Recover(rec.Auth)
	if err != nil {
		return err
	}
	var jump *latchkey.Authority
	if rec.Jump != "" {
		jump, err = latchkey.Recover(rec.Jump)
		if err != nil {
			return err
		}
	}
	var passkey *latchkey.Passkey
	if rec.KeyFile != "" {
		key, err := readArchiveFile(zr, rec.KeyFile)
		if err != nil {
			return err
		}
		passkey, err = latchkey.NewPrivateKey(key)
		if err != nil {
			return err
		}
	} else {
		passkey, err = latchkey.NewPassword(rec.Secret)
		if err != nil {
			return err
		}
	}
	return m.db.Add(rec.Name, passkey, auth, rec.Host, jump)
}

func readManifest(zr *zip.Reader) ([]exportRecord, error) {
	raw, err := readArchiveFile(zr, manifestName)
	if err != nil {
		return nil, err
	}
	var records []exportRecord
	if err := cbor.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return records, nil
}

func readArchiveFile(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("archive member %q: %w", name, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// newlineStripper drops whitespace so wrapped base64 decodes cleanly.
type newlineStripper struct {
	r io.Reader
}

func (s newlineStripper) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	kept := 0
	for _, b := range p[:n] {
		switch b {
		case '\n', '\r', ' ', '\t':
		default:
			p[kept] = b
			kept++
		}
	}
	return kept, err
}
