// Package idgen produces the identifiers attached to picker sessions and
// watched pages. IDs are UUIDv7 strings behind a short type prefix so log
// lines stay greppable and time-sortable within a prefix.
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

var (
	// Toolbar generates toolbar session IDs ("tb_...").
	Toolbar Generator = Prefixed("tb_", UUIDv7())
	// Page generates IDs for pages opened without an explicit one ("pg_...").
	Page Generator = Prefixed("pg_", UUIDv7())
)

// New produces a toolbar session ID.
func New() string {
	return Toolbar()
}

// Parse validates a prefixed ID and returns its UUID part.
func Parse(id string) (string, error) {
	i := strings.IndexByte(id, '_')
	if i < 0 {
		return "", fmt.Errorf("idgen: missing prefix in %q", id)
	}
	u, err := uuid.Parse(id[i+1:])
	if err != nil {
		return "", fmt.Errorf("idgen: invalid UUID in %q: %w", id, err)
	}
	return u.String(), nil
}
