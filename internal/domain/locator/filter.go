package locator

import "regexp"

// ClassFilter decides whether a class name looks generated or framework
// internal and must not be used in a locator.
type ClassFilter interface {
	IsVolatileClass(name string) bool
}

// IDFilter decides whether an id looks generated and must not be used.
type IDFilter interface {
	IsVolatileID(id string) bool
}

// PatternFilter matches a value against an ordered list of patterns. It
// implements both ClassFilter and IDFilter.
type PatternFilter []*regexp.Regexp

func (p PatternFilter) match(s string) bool {
	for _, re := range p {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func (p PatternFilter) IsVolatileClass(name string) bool { return p.match(name) }

func (p PatternFilter) IsVolatileID(id string) bool { return p.match(id) }

// NewPatternFilter compiles patterns in order.
func NewPatternFilter(patterns ...string) (PatternFilter, error) {
	out := make(PatternFilter, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// DefaultClassPatterns reject framework scoping classes, classes starting
// with a digit and hash-like names longer than 40 characters.
var DefaultClassPatterns = PatternFilter{
	regexp.MustCompile(`^style-scope`),
	regexp.MustCompile(`^yt-spec-`),
	regexp.MustCompile(`^yt-simple-`),
	regexp.MustCompile(`^[0-9]`),
	regexp.MustCompile(`^.{41,}$`),
}

// DefaultIDPatterns reject ids carrying 5+ consecutive digits.
var DefaultIDPatterns = PatternFilter{
	regexp.MustCompile(`\d{5,}`),
}
