package version

import "strings"

// itemKind orders items of different kinds. Every item sorts by kind
// first, so comparing two items never depends on a third. The zero kind
// is null.
type itemKind int

const (
	preReleaseKind  itemKind = iota - 1 // alpha, beta, milestone, rc, snapshot
	nullKind                            // 0, "", ga, final, release and padding
	postReleaseKind                     // sp
	textKind                            // unknown qualifiers, lexically
	numberKind                          // positive numbers
)

var qualifiers = []string{"alpha", "beta", "milestone", "rc", "snapshot", "", "sp"}

var qualifierAliases = map[string]string{
	"ga":      "",
	"final":   "",
	"release": "",
	"cr":      "rc",
}

var releaseRank = indexOf(qualifiers, "")

// item is one element of a parsed version. The zero item is null and is
// also the padding used when one group is shorter than the other.
type item struct {
	kind itemKind
	rank int    // qualifier index for pre and post release items
	text string // digits without leading zeros, or the unknown qualifier
}

func numberItem(digits string) item {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return item{}
	}
	return item{kind: numberKind, text: digits}
}

func qualifierItem(s string, followedByDigit bool) item {
	if followedByDigit && len(s) == 1 {
		switch s[0] {
		case 'a':
			s = "alpha"
		case 'b':
			s = "beta"
		case 'm':
			s = "milestone"
		}
	}
	if alias, ok := qualifierAliases[s]; ok {
		s = alias
	}
	switch i := indexOf(qualifiers, s); {
	case i < 0:
		return item{kind: textKind, text: s}
	case i < releaseRank:
		return item{kind: preReleaseKind, rank: i}
	case i > releaseRank:
		return item{kind: postReleaseKind, rank: i}
	}
	return item{}
}

func (it item) isNull() bool { return it.kind == nullKind }

func (it item) compare(o item) int {
	if it.kind != o.kind {
		if it.kind < o.kind {
			return -1
		}
		return 1
	}
	switch it.kind {
	case preReleaseKind, postReleaseKind:
		return compareInt(it.rank, o.rank)
	case textKind:
		return strings.Compare(it.text, o.text)
	case numberKind:
		if len(it.text) != len(o.text) {
			return compareInt(len(it.text), len(o.text))
		}
		return strings.Compare(it.text, o.text)
	}
	return 0
}

func (it item) String() string {
	switch it.kind {
	case preReleaseKind, postReleaseKind:
		return qualifiers[it.rank]
	case textKind, numberKind:
		return it.text
	}
	return "0"
}

// group is a run of items joined by '.'. A version is a sequence of
// groups split at '-' and at every switch between digits and letters.
type group []item

func (g group) compare(o group) int {
	for i := 0; i < len(g) || i < len(o); i++ {
		var left, right item
		if i < len(g) {
			left = g[i]
		}
		if i < len(o) {
			right = o[i]
		}
		if c := left.compare(right); c != 0 {
			return c
		}
	}
	return 0
}

func (g group) trim() group {
	for len(g) > 0 && g[len(g)-1].isNull() {
		g = g[:len(g)-1]
	}
	return g
}

func (g group) String() string {
	if len(g) == 0 {
		return "0"
	}
	parts := make([]string, len(g))
	for i, it := range g {
		parts[i] = it.String()
	}
	return strings.Join(parts, ".")
}

// groups is a parsed version. Missing groups compare as empty ones, and
// an empty group compares as all nulls, so comparison is lexicographic
// over padded sequences and therefore a total order.
type groups []group

func (gs groups) compare(o groups) int {
	for i := 0; i < len(gs) || i < len(o); i++ {
		var left, right group
		if i < len(gs) {
			left = gs[i]
		}
		if i < len(o) {
			right = o[i]
		}
		if c := left.compare(right); c != 0 {
			return c
		}
	}
	return 0
}

func (gs groups) String() string {
	if len(gs) == 0 {
		return "0"
	}
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = g.String()
	}
	return strings.Join(parts, "-")
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// parseGroups splits a lower-cased version string into trimmed groups.
func parseGroups(s string) groups {
	var (
		out     groups
		cur     group
		isDigit bool
		start   int
	)
	token := func(end int, followedByDigit bool) {
		switch {
		case end == start:
			cur = append(cur, item{})
		case isDigit:
			cur = append(cur, numberItem(s[start:end]))
		default:
			cur = append(cur, qualifierItem(s[start:end], followedByDigit))
		}
		start = end
	}
	split := func() {
		out = append(out, cur.trim())
		cur = nil
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		digit := c >= '0' && c <= '9'
		switch {
		case c == '.':
			token(i, false)
			start = i + 1
		case c == '-':
			token(i, false)
			start = i + 1
			split()
		case digit != isDigit && i > start:
			token(i, digit)
			split()
		}
		if c != '.' && c != '-' {
			isDigit = digit
		}
	}
	if len(s) > start {
		token(len(s), false)
	}
	split()

	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}
