// Package validation is the constraint-validation facility consumed by the
// generic repository. Entities declare their constraints with a Collector;
// the repository only consumes the resulting (field path, message) pairs.
package validation

import (
	"fmt"
	"regexp"
	"sort"
)

// Violation is a single failed constraint on an entity field.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// Collector accumulates violations while an entity is checked.
type Collector struct {
	violations []Violation
}

func New() *Collector {
	return &Collector{}
}

// Add records an arbitrary violation.
func (c *Collector) Add(field, message string) {
	c.violations = append(c.violations, Violation{Field: field, Message: message})
}

// Required checks that a string field is non-empty.
func (c *Collector) Required(field, value string) {
	if value == "" {
		c.Add(field, "must not be empty")
	}
}

// Length checks that a string field is within [min, max] runes.
// Empty values are skipped so Required stays the single source of the
// "must not be empty" message.
func (c *Collector) Length(field, value string, min, max int) {
	if value == "" {
		return
	}
	n := len([]rune(value))
	if n < min || n > max {
		c.Add(field, fmt.Sprintf("size must be between %d and %d", min, max))
	}
}

// Match checks a string field against a pattern. Empty values are skipped.
func (c *Collector) Match(field, value string, re *regexp.Regexp, message string) {
	if value == "" {
		return
	}
	if !re.MatchString(value) {
		c.Add(field, message)
	}
}

// Min checks a numeric lower bound.
func (c *Collector) Min(field string, value, min int) {
	if value < min {
		c.Add(field, fmt.Sprintf("must be at least %d", min))
	}
}

// Violations returns the collected violations sorted by field path.
// The sort keeps multi-violation error messages reproducible across runs.
func (c *Collector) Violations() []Violation {
	out := make([]Violation, len(c.violations))
	copy(out, c.violations)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Message < out[j].Message
	})
	return out
}
