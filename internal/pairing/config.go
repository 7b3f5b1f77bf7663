package pairing

import (
	"fmt"
	"strings"
)

// PrimaryRole decides which member of a pairing a plain create produces.
type PrimaryRole string

const (
	// PrimaryMain keeps the role the caller asked for (main unless flagged raw)
	// and clones the missing counterpart.
	PrimaryMain PrimaryRole = "main"
	// PrimaryRaw forces a new variant without a supplied raw counterpart to be
	// the raw member and clones its main counterpart.
	PrimaryRaw PrimaryRole = "raw"
)

// ParsePrimaryRole accepts "main" or "raw" (case-insensitive). Empty means main.
func ParsePrimaryRole(s string) (PrimaryRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PrimaryMain):
		return PrimaryMain, nil
	case string(PrimaryRaw):
		return PrimaryRaw, nil
	default:
		return "", fmt.Errorf("invalid primary role %q (want main or raw)", s)
	}
}

// Config carries the code prefixes and the creation policy. It is passed
// explicitly to NewService; there is no package level configuration.
type Config struct {
	RawPrefix  string
	MainPrefix string
	Separator  string
	Primary    PrimaryRole
}
