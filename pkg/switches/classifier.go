package switches

import (
	"regexp"
	"strings"

	"github.com/matzehuels/switchyard/pkg/layout"
)

// DefaultKeywords and DefaultPartIDs form the built-in switch heuristic.
var (
	DefaultKeywords = []string{"SWITCH", "POINT", "TURNOUT", "SLIP"}
	DefaultPartIDs  = []string{"2859", "2861", "7996"}
)

var partNumber = regexp.MustCompile(`\b\d{4}\b`)

// Classifier decides whether a layout item is a switch from its part name.
// It is a heuristic for layouts that come without a switch list.
type Classifier struct {
	keywords []string
	partIDs  map[string]struct{}
}

// NewClassifier builds a classifier from a keyword vocabulary and an
// allowlist of four-digit part numbers.
func NewClassifier(keywords, partIDs []string) *Classifier {
	c := &Classifier{partIDs: make(map[string]struct{}, len(partIDs))}
	for _, k := range keywords {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			c.keywords = append(c.keywords, k)
		}
	}
	for _, id := range partIDs {
		c.partIDs[strings.TrimSpace(id)] = struct{}{}
	}
	return c
}

// DefaultClassifier uses [DefaultKeywords] and [DefaultPartIDs].
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultKeywords, DefaultPartIDs)
}

// Match applies the heuristic to a part name: any keyword as a substring,
// otherwise the first standalone four-digit number in the allowlist.
func (c *Classifier) Match(partName string) bool {
	name := strings.ToUpper(partName)
	for _, k := range c.keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	if id := partNumber.FindString(name); id != "" {
		_, ok := c.partIDs[id]
		return ok
	}
	return false
}

// IsSwitch reports whether item is a switch. When known is non-empty it is
// authoritative and only membership counts; otherwise the part-name
// heuristic decides.
func (c *Classifier) IsSwitch(item layout.Item, known map[string]struct{}) bool {
	if len(known) > 0 {
		_, ok := known[item.ID]
		return ok
	}
	return c.Match(item.Part)
}

// Resolve returns the switches of l: the backend list when it is
// non-empty, otherwise every heuristically matched item in layout order.
func (c *Classifier) Resolve(l *layout.Layout) []layout.SwitchEntry {
	if len(l.Switches) > 0 {
		return append([]layout.SwitchEntry(nil), l.Switches...)
	}
	var out []layout.SwitchEntry
	for _, it := range l.Items {
		if c.Match(it.Part) {
			out = append(out, layout.SwitchEntry{ID: it.ID, Name: it.Part})
		}
	}
	return out
}

// IDSet collects entry ids for use with [Classifier.IsSwitch].
func IDSet(entries []layout.SwitchEntry) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.ID] = struct{}{}
	}
	return set
}
