package version

import (
	"strings"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// Restriction is one interval of a Range. A nil bound is unbounded.
type Restriction struct {
	Lower          *Version
	LowerInclusive bool
	Upper          *Version
	UpperInclusive bool
}

// Contains reports whether v lies inside the interval.
func (r Restriction) Contains(v Version) bool {
	if r.Lower != nil {
		c := r.Lower.Compare(v)
		if c > 0 || (c == 0 && !r.LowerInclusive) {
			return false
		}
	}
	if r.Upper != nil {
		c := r.Upper.Compare(v)
		if c < 0 || (c == 0 && !r.UpperInclusive) {
			return false
		}
	}
	return true
}

func (r Restriction) empty() bool {
	if r.Lower == nil || r.Upper == nil {
		return false
	}
	c := r.Lower.Compare(*r.Upper)
	return c > 0 || (c == 0 && !(r.LowerInclusive && r.UpperInclusive))
}

// String renders the restriction in range syntax.
func (r Restriction) String() string {
	if r.Lower != nil && r.Upper != nil && r.LowerInclusive && r.UpperInclusive && r.Lower.Equal(*r.Upper) {
		return "[" + r.Lower.String() + "]"
	}
	var b strings.Builder
	if r.LowerInclusive {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if r.Lower != nil {
		b.WriteString(r.Lower.String())
	}
	b.WriteByte(',')
	if r.Upper != nil {
		b.WriteString(r.Upper.String())
	}
	if r.UpperInclusive {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

func (r Restriction) intersect(o Restriction) (Restriction, bool) {
	out := Restriction{}

	switch {
	case r.Lower == nil:
		out.Lower, out.LowerInclusive = o.Lower, o.LowerInclusive
	case o.Lower == nil:
		out.Lower, out.LowerInclusive = r.Lower, r.LowerInclusive
	default:
		c := r.Lower.Compare(*o.Lower)
		switch {
		case c > 0:
			out.Lower, out.LowerInclusive = r.Lower, r.LowerInclusive
		case c < 0:
			out.Lower, out.LowerInclusive = o.Lower, o.LowerInclusive
		default:
			out.Lower, out.LowerInclusive = r.Lower, r.LowerInclusive && o.LowerInclusive
		}
	}

	switch {
	case r.Upper == nil:
		out.Upper, out.UpperInclusive = o.Upper, o.UpperInclusive
	case o.Upper == nil:
		out.Upper, out.UpperInclusive = r.Upper, r.UpperInclusive
	default:
		c := r.Upper.Compare(*o.Upper)
		switch {
		case c < 0:
			out.Upper, out.UpperInclusive = r.Upper, r.UpperInclusive
		case c > 0:
			out.Upper, out.UpperInclusive = o.Upper, o.UpperInclusive
		default:
			out.Upper, out.UpperInclusive = r.Upper, r.UpperInclusive && o.UpperInclusive
		}
	}

	if out.empty() {
		return Restriction{}, false
	}
	return out, true
}

// Range is a non-empty, ordered, non-overlapping set of restrictions.
type Range struct {
	Restrictions []Restriction
}

// Contains reports whether any restriction contains v.
func (r Range) Contains(v Version) bool {
	for _, res := range r.Restrictions {
		if res.Contains(v) {
			return true
		}
	}
	return false
}

// Intersect returns the versions contained in both r and o. The boolean is
// false when the intersection is empty.
func (r Range) Intersect(o Range) (Range, bool) {
	var out []Restriction
	for _, a := range r.Restrictions {
		for _, b := range o.Restrictions {
			if res, ok := a.intersect(b); ok {
				out = append(out, res)
			}
		}
	}
	if len(out) == 0 {
		return Range{}, false
	}
	return Range{Restrictions: out}, true
}

// String renders the range in the syntax accepted by ParseRange.
func (r Range) String() string {
	parts := make([]string, len(r.Restrictions))
	for i, res := range r.Restrictions {
		parts[i] = res.String()
	}
	return strings.Join(parts, ",")
}

// IsRange reports whether s uses range syntax.
func IsRange(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "(")
}

// ParseRange parses one or more comma separated restrictions such as
// "[1.0,2.0)" or "(,1.0],[1.2,)". Errors carry the VERSION_PARSE code.
func ParseRange(spec string) (Range, error) {
	process := strings.TrimSpace(spec)
	if process == "" {
		return Range{}, errs.New(errs.ErrCodeVersionParse, "empty version range")
	}
	if !IsRange(process) {
		return Range{}, errs.New(errs.ErrCodeVersionParse, "a range must start with [ or (: %s", spec)
	}

	var restrictions []Restriction
	var upper *Version
	for IsRange(process) {
		idx := closingBracket(process)
		if idx < 0 {
			return Range{}, errs.New(errs.ErrCodeVersionParse, "unbounded range: %s", spec)
		}
		res, err := parseRestriction(process[:idx+1], spec)
		if err != nil {
			return Range{}, err
		}
		if len(restrictions) > 0 {
			if upper == nil || res.Lower == nil || res.Lower.Compare(*upper) < 0 {
				return Range{}, errs.New(errs.ErrCodeVersionParse, "ranges overlap: %s", spec)
			}
			prev := restrictions[len(restrictions)-1]
			if res.Lower.Compare(*upper) == 0 && prev.UpperInclusive && res.LowerInclusive {
				return Range{}, errs.New(errs.ErrCodeVersionParse, "ranges overlap: %s", spec)
			}
		}
		restrictions = append(restrictions, res)
		upper = res.Upper

		process = strings.TrimSpace(process[idx+1:])
		if strings.HasPrefix(process, ",") {
			process = strings.TrimSpace(process[1:])
			if process == "" {
				return Range{}, errs.New(errs.ErrCodeVersionParse, "trailing comma in range: %s", spec)
			}
		} else if process != "" {
			break
		}
	}
	if process != "" {
		return Range{}, errs.New(errs.ErrCodeVersionParse, "only fully-qualified sets allowed in multiple set scenario: %s", spec)
	}
	return Range{Restrictions: restrictions}, nil
}

// closingBracket returns the index of the first ']' or ')' in s.
func closingBracket(s string) int {
	return strings.IndexAny(s, "])")
}

func parseRestriction(s, spec string) (Restriction, error) {
	lowerInclusive := strings.HasPrefix(s, "[")
	upperInclusive := strings.HasSuffix(s, "]")
	body := strings.TrimSpace(s[1 : len(s)-1])

	if strings.ContainsAny(body, "[(") {
		return Restriction{}, errs.New(errs.ErrCodeVersionParse, "unbalanced brackets: %s", spec)
	}

	comma := strings.Index(body, ",")
	if comma < 0 {
		if !lowerInclusive || !upperInclusive {
			return Restriction{}, errs.New(errs.ErrCodeVersionParse, "single version must be surrounded by []: %s", spec)
		}
		if body == "" {
			return Restriction{}, errs.New(errs.ErrCodeVersionParse, "empty restriction: %s", spec)
		}
		v := Parse(body)
		return Restriction{Lower: &v, LowerInclusive: true, Upper: &v, UpperInclusive: true}, nil
	}

	lowerStr := strings.TrimSpace(body[:comma])
	upperStr := strings.TrimSpace(body[comma+1:])
	if strings.Contains(upperStr, ",") {
		return Restriction{}, errs.New(errs.ErrCodeVersionParse, "too many bounds in restriction: %s", spec)
	}
	if lowerStr == upperStr {
		return Restriction{}, errs.New(errs.ErrCodeVersionParse, "range cannot have identical boundaries: %s", spec)
	}

	res := Restriction{LowerInclusive: lowerInclusive, UpperInclusive: upperInclusive}
	if lowerStr != "" {
		v := Parse(lowerStr)
		res.Lower = &v
	}
	if upperStr != "" {
		v := Parse(upperStr)
		res.Upper = &v
	}
	if res.Lower != nil && res.Upper != nil {
		c := res.Lower.Compare(*res.Upper)
		if c > 0 {
			return Restriction{}, errs.New(errs.ErrCodeVersionParse, "range defies version ordering: %s", spec)
		}
		if c == 0 && !(lowerInclusive && upperInclusive) {
			return Restriction{}, errs.New(errs.ErrCodeVersionParse, "empty range: %s", spec)
		}
	}
	return res, nil
}
