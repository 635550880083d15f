package mlang

import (
	"regexp"
	"strings"
)

// Parameter is one declared parameter of a function-style query body.
type Parameter struct {
	Name     string
	Type     string
	Optional bool
}

var (
	// funcHeader finds the parameter list of "(a as text, optional b) =>".
	funcHeader = regexp.MustCompile(`(?s)\(\s*(.*?)\s*\)(?:\s+as\s+.*?)?\s*=>`)

	// commentAny strips // line and /* block */ comments.
	commentAny = regexp.MustCompile(`(?s)//[^\n]*|/\*.*?\*/`)

	// paramDecl parses one "optional name as type" declaration.
	paramDecl = regexp.MustCompile(`(?s)^\s*(optional\s+)?([a-zA-Z0-9_]+)(\s+as\s+(.*))?\s*$`)
)

// Parameters parses the parameter list of a function-style body. A body
// that is not a function yields nil. Types default to "any"; declarations
// the parser cannot make sense of come back with type "unknown" rather
// than being dropped.
func Parameters(body string) []Parameter {
	m := funcHeader.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	list := m[1]
	if strings.TrimSpace(list) == "" {
		return nil
	}
	list = commentAny.ReplaceAllString(list, "")

	var out []Parameter
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		pm := paramDecl.FindStringSubmatch(part)
		if pm == nil {
			out = append(out, Parameter{Name: strings.TrimSpace(part), Type: "unknown"})
			continue
		}
		typ := strings.TrimSpace(pm[4])
		if typ == "" {
			typ = "any"
		}
		out = append(out, Parameter{Name: pm[2], Type: typ, Optional: pm[1] != ""})
	}
	return out
}
