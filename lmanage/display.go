package lmanage

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/latchkey/latchkey"
	"github.com/latchkey/latchkey/ldb"
)

// Display renders entries and command notices. Jump servers and the
// entries bouncing through them are color-coded in list views; color is
// suppressed automatically when the writer is not a terminal.
type Display struct {
	out io.Writer

	header *color.Color
	target *color.Color
	bounce *color.Color
}

// NewDisplay renders to out.
func NewDisplay(out io.Writer) *Display {
	return &Display{
		out:    out,
		header: color.New(color.Bold),
		target: color.New(color.FgCyan),
		bounce: color.New(color.FgYellow),
	}
}

// Notice prints a one-line message.
func (d *Display) Notice(format string, args ...any) {
	fmt.Fprintf(d.out, format+"\n", args...)
}

// Added reports a created entry.
func (d *Display) Added(name string, auth *latchkey.Authority) {
	fmt.Fprintf(d.out, "added %s (%s)\n", name, auth.Read(true))
}

// Updated reports a modified entry.
func (d *Display) Updated(name string) {
	fmt.Fprintf(d.out, "updated %s\n", name)
}

// Removed reports a deleted entry.
func (d *Display) Removed(name string) {
	fmt.Fprintf(d.out, "removed %s\n", name)
}

// Entry shows one entry in full. The secret stays base64-masked unless
// reveal is set.
func (d *Display) Entry(name string, auth *latchkey.Authority, host string, passkey *latchkey.Passkey, reveal bool) {
	d.header.Fprintln(d.out, name)
	fmt.Fprintf(d.out, "  signature  %s\n", auth.Signature())
	fmt.Fprintf(d.out, "  authority  %s\n", auth.Read(true))
	if host != "" {
		fmt.Fprintf(d.out, "  hostname   %s\n", host)
	}
	fmt.Fprintf(d.out, "  kind       %s\n", passkey.Kind())
	secret := passkey.Masked()
	if reveal {
		secret = string(passkey.Secret())
	}
	fmt.Fprintf(d.out, "  secret     %s\n", secret)
}

// List renders entries as a table, one row per entry in the given order.
// Rows whose authority is a jump target are cyan; rows that bounce through
// a jump are yellow with the target signature in the JUMP column.
func (d *Display) List(entries []ldb.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(d.out, "no entries")
		return
	}
	nameW, hostW, userW := len("NAME"), len("HOSTNAME"), len("USER")
	targets := make(map[string]bool)
	for _, e := range entries {
		nameW = max(nameW, len(e.Name))
		hostW = max(hostW, len(e.Host))
		userW = max(userW, len(e.Auth.User()))
		if e.Jump != nil {
			targets[e.Jump.Signature()] = true
		}
	}

	format := fmt.Sprintf("%%-%ds  %%-8s  %%-6s  %%-15s  %%5s  %%-%ds  %%-%ds  %%s\n", nameW, hostW, userW)
	d.header.Fprintf(d.out, format, "NAME", "SIG", "SCHEME", "ADDRESS", "PORT", "HOSTNAME", "USER", "JUMP")
	for _, e := range entries {
		jump := ""
		if e.Jump != nil {
			jump = e.Jump.Signature()
		}
		line := fmt.Sprintf(format, e.Name, e.Auth.Signature(), e.Auth.Scheme(), e.Auth.HostIP4(),
			fmt.Sprintf("%d", e.Auth.Port()), e.Host, e.Auth.User(), jump)
		switch {
		case targets[e.Auth.Signature()]:
			d.target.Fprint(d.out, line)
		case e.Jump != nil:
			d.bounce.Fprint(d.out, line)
		default:
			fmt.Fprint(d.out, line)
		}
	}
}

// ListVertical renders entries one block per entry, in the given order.
func (d *Display) ListVertical(entries []ldb.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(d.out, "no entries")
		return
	}
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(d.out)
		}
		d.header.Fprintln(d.out, e.Name)
		fmt.Fprintf(d.out, "  signature  %s\n", e.Auth.Signature())
		fmt.Fprintf(d.out, "  authority  %s\n", e.Auth.Read(true))
		if e.Host != "" {
			fmt.Fprintf(d.out, "  hostname   %s\n", e.Host)
		}
		if e.Jump != nil {
			fmt.Fprintf(d.out, "  jump       %s (%s)\n", e.Jump.Read(true), e.Jump.Signature())
		}
	}
}
