package montage

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is one of the four channel positions a conversion needs
type Role int

const (
	EEGLeft Role = iota
	EEGRight
	EOGLeft
	EOGRight
)

// Roles lists every role in resolution order
var Roles = [...]Role{EEGLeft, EEGRight, EOGLeft, EOGRight}

// String returns the short electrode name used on the command line
func (r Role) String() string {
	switch r {
	case EEGLeft:
		return "C3"
	case EEGRight:
		return "C4"
	case EOGLeft:
		return "EL"
	case EOGRight:
		return "ER"
	default:
		return "unknown"
	}
}

// Description returns a human readable role name
func (r Role) Description() string {
	switch r {
	case EEGLeft:
		return "left EEG"
	case EEGRight:
		return "right EEG"
	case EOGLeft:
		return "left EOG"
	case EOGRight:
		return "right EOG"
	default:
		return "unknown"
	}
}

// Fold normalizes a channel label for comparison
func Fold(label string) string {
	// Casers keep state and are not safe to share between goroutines
	return cases.Lower(language.Und).String(strings.TrimSpace(label))
}

// RoleMap holds the folded channel label for each role
type RoleMap [len(Roles)]string

// NewRoleMap builds a role map from raw labels
func NewRoleMap(eegLeft, eegRight, eogLeft, eogRight string) RoleMap {
	return RoleMap{Fold(eegLeft), Fold(eegRight), Fold(eogLeft), Fold(eogRight)}
}

// Label returns the folded label for r
func (m RoleMap) Label(r Role) string {
	return m[r]
}

// With returns a copy of m with r set to label
func (m RoleMap) With(r Role, label string) RoleMap {
	m[r] = Fold(label)
	return m
}

// Missing returns the roles with no label
func (m RoleMap) Missing() []Role {
	var out []Role
	for _, r := range Roles {
		if m[r] == "" {
			out = append(out, r)
		}
	}
	return out
}

// Complete reports whether every role has a label
func (m RoleMap) Complete() bool {
	return len(m.Missing()) == 0
}
