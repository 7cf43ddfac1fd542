package parts

import "strings"

// DefaultPrefixes are the category markers stripped by [Normalize].
var DefaultPrefixes = []string{"TB", "TS"}

// Normalizer canonicalizes part labels into catalog keys.
type Normalizer struct {
	prefixes map[string]struct{}
}

// NewNormalizer returns a Normalizer that strips the given two-letter
// category tokens. Tokens are matched case-insensitively.
func NewNormalizer(prefixes ...string) *Normalizer {
	n := &Normalizer{prefixes: make(map[string]struct{}, len(prefixes))}
	for _, p := range prefixes {
		n.prefixes[strings.ToUpper(strings.TrimSpace(p))] = struct{}{}
	}
	return n
}

var defaultNormalizer = NewNormalizer(DefaultPrefixes...)

// Normalize uppercases raw, strips leading category tokens while another
// token follows, and collapses whitespace runs to a single space.
//
// Normalize is total and idempotent.
func Normalize(raw string) string { return defaultNormalizer.Normalize(raw) }

// Normalize implements the package-level [Normalize] with n's prefix set.
func (n *Normalizer) Normalize(raw string) string {
	fields := strings.Fields(strings.ToUpper(raw))
	for len(fields) > 1 {
		if _, ok := n.prefixes[fields[0]]; !ok {
			break
		}
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}
