package ldb_test

import (
	"errors"
	"testing"

	"github.com/latchkey/latchkey"
	"github.com/latchkey/latchkey/ldb"
)

func entry(t *testing.T, name, ip string, jump *latchkey.Authority) ldb.Entry {
	t.Helper()
	return ldb.Entry{Name: name, Auth: mustAuth(t, ip, 22, "root", "ssh"), Jump: jump}
}

func names(entries []ldb.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestArrangePlacesJumperAfterTarget(t *testing.T) {
	a := entry(t, "alpha-server", "10.0.0.1", nil)
	b := entry(t, "bravo-server", "10.0.0.2", a.Auth)

	// Either input order must yield bravo immediately after alpha.
	for _, input := range [][]ldb.Entry{{a, b}, {b, a}} {
		out, err := ldb.Arrange(input)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		got := names(out)
		if len(got) != 2 || got[0] != "alpha-server" || got[1] != "bravo-server" {
			t.Errorf("Arrange(%v) = %v", names(input), got)
		}
	}
}

func TestArrangeGroupsChains(t *testing.T) {
	a := entry(t, "alpha-server", "10.0.0.1", nil)
	b := entry(t, "bravo-server", "10.0.0.2", a.Auth)
	c := entry(t, "charlie-server", "10.0.0.3", b.Auth)
	d := entry(t, "delta-server", "10.0.0.4", nil)

	out, err := ldb.Arrange([]ldb.Entry{c, d, b, a})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	got := names(out)
	pos := make(map[string]int, len(got))
	for i, n := range got {
		pos[n] = i
	}
	if pos["bravo-server"] != pos["alpha-server"]+1 {
		t.Errorf("bravo not immediately after alpha: %v", got)
	}
	if pos["charlie-server"] <= pos["bravo-server"] {
		t.Errorf("charlie not after bravo: %v", got)
	}
	if len(got) != 4 {
		t.Errorf("lost entries: %v", got)
	}
}

func TestArrangeKeepsInputOrderWithoutJumps(t *testing.T) {
	a := entry(t, "alpha-server", "10.0.0.1", nil)
	b := entry(t, "bravo-server", "10.0.0.2", nil)
	c := entry(t, "charlie-server", "10.0.0.3", nil)

	out, err := ldb.Arrange([]ldb.Entry{b, c, a})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	got := names(out)
	if got[0] != "bravo-server" || got[1] != "charlie-server" || got[2] != "alpha-server" {
		t.Errorf("order changed: %v", got)
	}
}

func TestArrangeDetectsCycle(t *testing.T) {
	b := entry(t, "bravo-server", "10.0.0.2", nil)
	c := entry(t, "charlie-server", "10.0.0.3", nil)
	b.Jump = c.Auth
	c.Jump = b.Auth

	_, err := ldb.Arrange([]ldb.Entry{b, c})
	if !errors.Is(err, latchkey.ErrMaxIterations) {
		t.Errorf("Arrange cycle = %v, want ErrMaxIterations", err)
	}
}

func TestArrangeEmpty(t *testing.T) {
	out, err := ldb.Arrange(nil)
	if err != nil {
		t.Fatalf("Arrange(nil): %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Arrange(nil) = %v", out)
	}
}
