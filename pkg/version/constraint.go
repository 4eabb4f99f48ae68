package version

import (
	"strings"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// Constraint is a version requirement: either a recommended version or a
// set of ranges. Parsed constraints never carry both, but a hand-built
// constraint may recommend a version outside its ranges.
type Constraint struct {
	Recommended *Version
	Ranges      *Range
}

// ParseConstraint parses a bare version as a recommendation and bracketed
// input as ranges.
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Constraint{}, errs.New(errs.ErrCodeVersionParse, "empty version constraint")
	}
	if IsRange(s) {
		r, err := ParseRange(s)
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{Ranges: &r}, nil
	}
	if strings.ContainsAny(s, "[]()") {
		return Constraint{}, errs.New(errs.ErrCodeVersionParse, "unbalanced brackets in version constraint: %s", s)
	}
	v := Parse(s)
	return Constraint{Recommended: &v}, nil
}

// HasRanges reports whether the constraint restricts candidates.
func (c Constraint) HasRanges() bool { return c.Ranges != nil }

// Contains reports whether v satisfies the constraint. A recommendation is a
// preference, so a constraint without ranges accepts every version.
func (c Constraint) Contains(v Version) bool {
	if c.Ranges == nil {
		return true
	}
	return c.Ranges.Contains(v)
}

// String renders the constraint in the syntax accepted by ParseConstraint.
func (c Constraint) String() string {
	if c.Ranges != nil {
		return c.Ranges.String()
	}
	if c.Recommended != nil {
		return c.Recommended.String()
	}
	return ""
}

// Select returns the highest candidate satisfying c. The boolean is false
// when no candidate qualifies.
func Select(candidates []Version, c Constraint) (Version, bool) {
	var matching []Version
	for _, v := range candidates {
		if c.Contains(v) {
			matching = append(matching, v)
		}
	}
	return Max(matching)
}
