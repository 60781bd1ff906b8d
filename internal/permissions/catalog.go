// Package permissions maps classification tiers to the capability strings a
// session carries, and decides whether a granted set satisfies a request.
//
// Capability strings follow the resource:action convention. The catalog is
// cumulative: every tier grants everything the tier below it grants.
package permissions

import (
	"fmt"
	"slices"
	"strings"
)

// Classification is a coarse sensitivity tier.
type Classification string

const (
	Unclassified Classification = "unclassified"
	CUI          Classification = "cui"
	Secret       Classification = "secret"
)

// Wildcard grants every capability.
const Wildcard = "*"

var (
	base = []string{
		"catalog:read",
		"objects:search",
		"objects:get",
		"tle:read",
		"predictions:read",
	}
	cuiExtensions = []string{
		"conjunctions:read",
		"sensors:read",
		"analysis:read",
	}
	secretExtensions = []string{
		"classifications:all",
		"spacefence:read",
		"intelligence:read",
	}
)

// ParseClassification accepts the lower-case tier names, ignoring
// surrounding whitespace and case.
func ParseClassification(s string) (Classification, error) {
	c := Classification(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown classification %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the known tiers.
func (c Classification) Valid() bool {
	return c.Rank() >= 0
}

// Rank orders the tiers; unknown tiers rank -1.
func (c Classification) Rank() int {
	switch c {
	case Unclassified:
		return 0
	case CUI:
		return 1
	case Secret:
		return 2
	default:
		return -1
	}
}

// Dominates reports whether a holder cleared for c may act at level other.
func (c Classification) Dominates(other Classification) bool {
	return other.Valid() && c.Rank() >= other.Rank()
}

func (c Classification) String() string { return string(c) }

// ForClassification returns a fresh, ordered slice with the capabilities
// granted to c. Unknown tiers get the unclassified set.
func ForClassification(c Classification) []string {
	out := slices.Clone(base)
	switch c {
	case CUI:
		out = append(out, cuiExtensions...)
	case Secret:
		out = append(out, cuiExtensions...)
		out = append(out, secretExtensions...)
	}
	return out
}

// Allows reports whether granted satisfies required: an exact match, the
// global wildcard, or a namespace wildcard such as "objects:*".
func Allows(granted []string, required string) bool {
	if required == "" {
		return false
	}
	namespace, _, hasNamespace := strings.Cut(required, ":")
	for _, g := range granted {
		switch {
		case g == required, g == Wildcard:
			return true
		case hasNamespace && g == namespace+":*":
			return true
		}
	}
	return false
}
