package traverse

import (
	"regexp"
	"strings"
)

// Pattern is a compiled file-name pattern.
//
// Without "*" it matches names equal to the pattern ignoring case. With
// one or more "*" it matches whole names where each "*" stands for any run
// of characters (possibly empty) and every other character is literal.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// Compile never fails: every string is a valid pattern.
func Compile(pattern string) *Pattern {
	p := &Pattern{raw: pattern}
	if !strings.Contains(pattern, "*") {
		return p
	}
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	p.re = regexp.MustCompile("(?is)^" + strings.Join(parts, ".*") + "$")
	return p
}

// Match reports whether name matches the pattern.
func (p *Pattern) Match(name string) bool {
	if p.re == nil {
		return strings.EqualFold(name, p.raw)
	}
	return p.re.MatchString(name)
}

// String returns the pattern as written.
func (p *Pattern) String() string {
	return p.raw
}

// HasWildcard reports whether the pattern contains "*".
func (p *Pattern) HasWildcard() bool {
	return p.re != nil
}

// Matches compiles pattern and tests name against it.
func Matches(name, pattern string) bool {
	return Compile(pattern).Match(name)
}
