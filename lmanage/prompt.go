package lmanage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/latchkey/latchkey"
)

// SecretSource supplies secret material for append and update operations.
type SecretSource interface {
	// ReadSecret obtains a password, prompting interactively when possible.
	ReadSecret(prompt string) ([]byte, error)

	// ReadKeyFile obtains private-key bytes from a file path.
	ReadKeyFile(path string) ([]byte, error)
}

// TerminalSource reads passwords from the controlling terminal without echo
// and private keys from the filesystem. When In is not a terminal, a single
// line is read instead so scripted input works.
type TerminalSource struct {
	In  *os.File
	Out io.Writer
}

var _ SecretSource = (*TerminalSource)(nil)

func (s *TerminalSource) ReadSecret(prompt string) ([]byte, error) {
	fmt.Fprintf(s.Out, "%s: ", prompt)
	fd := int(s.In.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(s.Out)
		if err != nil {
			return nil, fmt.Errorf("read secret: %w", err)
		}
		return secret, nil
	}
	line, err := bufio.NewReader(s.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

func (s *TerminalSource) ReadKeyFile(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: private key file %q is empty", latchkey.ErrValidation, path)
	}
	return key, nil
}

// StaticSource returns fixed secret material. Used by tests and by import
// replay, where the secret is already in hand.
type StaticSource struct {
	Secret []byte
	Key    []byte
}

var _ SecretSource = (*StaticSource)(nil)

func (s *StaticSource) ReadSecret(string) ([]byte, error) { return s.Secret, nil }

func (s *StaticSource) ReadKeyFile(string) ([]byte, error) { return s.Key, nil }
