package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var idRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// NormalizeID cleans a user or team identifier
// Accepts formats like:
// - "U123ABC" -> "U123ABC"
// - "@alice", " alice " -> "alice"
// - "#T42" -> "T42"
// Returns error if the identifier has unsupported characters
func NormalizeID(kind, id string) (string, error) {
	id = strings.TrimSpace(id)
	id = strings.TrimLeft(id, "@#")
	if id == "" {
		return "", fmt.Errorf("%s id is required", kind)
	}

	if !idRegex.MatchString(id) {
		return "", fmt.Errorf("invalid %s id %q. Use letters, digits, dot, dash or underscore", kind, id)
	}
	return id, nil
}

// IsValidID checks if a string can be used as an identifier
func IsValidID(id string) bool {
	_, err := NormalizeID("", id)
	return err == nil
}
