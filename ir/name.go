package ir

import (
	"regexp"
	"strconv"
	"strings"
)

// Name decomposes a raw PDB type name (which may carry C++ template syntax)
// into a stable Go-safe identifier plus the list of generic parameter names
// the identifier depends on.
type Name struct {
	// Raw is the original PDB name, unmodified.
	Raw string
	// Ident is Raw with '*' spelled "star" and '&' spelled "amp", then every
	// run of non-alphanumeric bytes collapsed to a single underscore and
	// leading/trailing underscores trimmed - safe to use as a Go type name.
	Ident string
	// Generics holds the template parameter names extracted from Raw's
	// outermost <...>, filtered down to the ones that name another type
	// this node depends on (literals, primitive keywords, and function
	// pointer parameters are dropped).
	Generics []string
}

var identCollapse = regexp.MustCompile(`[^a-zA-Z0-9]+`)

var primitiveGenericNames = map[string]bool{
	"void": true, "bool": true, "char": true, "short": true, "int": true,
	"long": true, "wchar_t": true, "float": true, "double": true,
	"unnamed-tag": true,
}

// ParseName builds a Name from a raw PDB type name string.
func ParseName(raw string) Name {
	var generics []string
	if inner, ok := bracketContents(raw, '<', '>'); ok {
		for _, part := range splitTopLevel(inner) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, err := strconv.ParseInt(part, 10, 64); err == nil {
				continue // non-type template argument (array bound, enum value, ...)
			}
			if primitiveGenericNames[part] {
				continue
			}
			if strings.HasPrefix(part, "unsigned") || strings.HasPrefix(part, "signed ") {
				continue
			}
			if strings.Contains(part, "(") {
				continue // function-pointer-shaped argument, not a named type
			}
			if strings.HasSuffix(part, " *") || strings.HasSuffix(part, " &") {
				part = strings.ReplaceAll(part, "*", "star")
				part = strings.ReplaceAll(part, "&", "amp")
			}
			generics = append(generics, part)
		}
	}

	ident := strings.ReplaceAll(raw, "*", "star")
	ident = strings.ReplaceAll(ident, "&", "amp")
	ident = identCollapse.ReplaceAllString(ident, "_")
	ident = strings.Trim(ident, "_")

	return Name{Raw: raw, Ident: ident, Generics: generics}
}

// bracketContents returns the substring strictly between the first
// occurrence of start and its matching end, honoring nesting, and whether a
// balanced match was found at all.
func bracketContents(s string, start, end byte) (string, bool) {
	startIdx := strings.IndexByte(s, start)
	if startIdx < 0 {
		return "", false
	}
	rest := s[startIdx+1:]
	level := 1
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case start:
			level++
		case end:
			level--
		}
		if level == 0 {
			return rest[:i], true
		}
	}
	return "", false
}

// splitTopLevel splits s on commas that are not nested inside a <...> run.
func splitTopLevel(s string) []string {
	var parts []string
	level := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			level++
		case '>':
			level--
		case ',':
			if level == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}
