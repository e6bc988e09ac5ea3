package lmanage

import (
	"fmt"
	"io"

	"github.com/latchkey/latchkey"
)

// Command is one management operation. The set is closed: every variant is
// declared here and Manager.Run dispatches over all of them exhaustively.
type Command interface {
	isCommand()
}

// Init reports the store as ready. Opening the store already created the
// file and wrote the format version, so Init only confirms the location.
type Init struct {
	Path string
}

// Append creates a new entry. An empty Name gets a generated id. Exactly
// one of Port and Scheme may be omitted; the service table fills the other.
// An empty KeyFile means the secret is a password read from the source.
type Append struct {
	Name     string
	Host     string
	Port     int
	User     string
	Scheme   string
	JumpName string
	KeyFile  string
}

// Update replaces an existing entry's secret, or, when JumpName is set,
// its jump authority.
type Update struct {
	Name     string
	JumpName string
	KeyFile  string
}

// Remove deletes an entry by name.
type Remove struct {
	Name string
}

// Lookup shows one entry with its secret, masked unless Reveal is set.
type Lookup struct {
	Name   string
	Reveal bool
}

// Recall shows the entry whose authority signature matches.
type Recall struct {
	Signature string
	Reveal    bool
}

// Forget deletes the entry whose authority signature matches.
type Forget struct {
	Signature string
}

// List shows every entry, jump chains grouped, as a table or vertically.
type List struct {
	Vertical bool
}

// Export writes the whole store to To as a base64-wrapped zip archive.
type Export struct {
	To io.Writer
}

// Import replays a base64-wrapped zip archive from From into the store.
type Import struct {
	From io.Reader
}

func (Init) isCommand()   {}
func (Append) isCommand() {}
func (Update) isCommand() {}
func (Remove) isCommand() {}
func (Lookup) isCommand() {}
func (Recall) isCommand() {}
func (Forget) isCommand() {}
func (List) isCommand()   {}
func (Export) isCommand() {}
func (Import) isCommand() {}

// Run executes one command against the store.
func (m *Manager) Run(cmd Command) error {
	switch c := cmd.(type) {
	case Init:
		return m.runInit(c)
	case Append:
		return m.runAppend(c)
	case Update:
		return m.runUpdate(c)
	case Remove:
		return m.runRemove(c)
	case Lookup:
		return m.runLookup(c)
	case Recall:
		return m.runRecall(c)
	case Forget:
		return m.runForget(c)
	case List:
		return m.runList(c)
	case Export:
		return m.runExport(c)
	case Import:
		return m.runImport(c)
	default:
		return fmt.Errorf("%w: unknown command %T", latchkey.ErrValidation, cmd)
	}
}
