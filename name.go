package latchkey

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Entry-name limits. Generated names are shorter than MinNameLen so a
// generated id can never collide with the user-chosen namespace rules.
const (
	MinNameLen       = 10
	MaxNameLen       = 42
	generatedNameLen = 16
)

// validNameRegexp matches user-chosen entry names: alphanumeric start, then
// alphanumerics, dots, underscores and hyphens, 10-42 characters total.
var validNameRegexp = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{9,41}$`)

// generatedNameRegexp matches server-generated 16-hex-character ids.
var generatedNameRegexp = regexp.MustCompile(`^[0-9a-f]{16}$`)

// ValidateName checks that name is usable as an entry name: either a
// user-chosen name of 10-42 safe characters or a generated 16-hex id.
func ValidateName(name string) error {
	if validNameRegexp.MatchString(name) || generatedNameRegexp.MatchString(name) {
		return nil
	}
	return fmt.Errorf("%w: invalid entry name %q: must be %d-%d characters of [a-zA-Z0-9._-] starting alphanumeric",
		ErrValidation, name, MinNameLen, MaxNameLen)
}

// GenerateName returns a random 16-lowercase-hex entry name.
func GenerateName() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id[:generatedNameLen]
}
