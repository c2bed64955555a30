package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// namePattern is a compiled glob matched against a single entry name.
type namePattern struct {
	re       *regexp.Regexp
	original string
}

func compileNamePattern(pattern string) (*namePattern, error) {
	if strings.Contains(pattern, "/") {
		return nil, fmt.Errorf("ignore pattern %q: names cannot contain '/'", pattern)
	}
	re, err := regexp.Compile("^" + globToRegex(pattern) + "$")
	if err != nil {
		return nil, fmt.Errorf("ignore pattern %q: %w", pattern, err)
	}
	return &namePattern{re: re, original: pattern}, nil
}

func (p *namePattern) match(name string) bool {
	return p.re.MatchString(name)
}

// globToRegex converts a glob to a regex body. '*' and '?' never match '/'.
//
//nolint:gocyclo,revive // cognitive-complexity: character-by-character glob parser
func globToRegex(pattern string) string {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString("[^/]*")
			for i < len(pattern) && pattern[i] == '*' {
				i++
			}
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j < len(pattern) {
				cls := pattern[i+1 : j]
				if strings.HasPrefix(cls, "!") {
					cls = "^" + cls[1:]
				}
				b.WriteString("[" + cls + "]")
				i = j + 1
			} else {
				b.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}
		case '.', '(', ')', '+', '{', '}', '^', '$', '|', '\\':
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
