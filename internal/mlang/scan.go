// Package mlang implements a lightweight, best-effort scan of Power Query
// "M" source text: call references for dependency suggestions, function
// parameters, and data-source usage. It is not a grammar parser and is
// advisory only; callers own the final dependency list.
package mlang

import (
	"regexp"
	"sort"
	"strings"
)

// m keywords, lowercase. Matched case-insensitively by the tokenizer.
var keywords = map[string]bool{
	"let": true, "in": true, "if": true, "then": true, "else": true,
	"each": true, "try": true, "otherwise": true, "type": true, "meta": true,
	"as": true, "is": true, "section": true, "shared": true,
	"true": true, "false": true, "null": true,
}

// dataSourceFuncs are the library functions treated as data-source entry
// points. The map key is folded; the value is the canonical spelling.
var dataSourceFuncs = map[string]string{}

var dataSourceNames = []string{
	"Sql.Database",
	"Web.Contents",
	"File.Contents",
	"Excel.Workbook",
	"Excel.CurrentWorkbook",
	"Csv.Document",
	"Json.Document",
	"Odbc.DataSource",
	"Folder.Files",
	"SharePoint.Files",
	"PowerBI.Dataflows",
}

func init() {
	for _, n := range dataSourceNames {
		dataSourceFuncs[strings.ToLower(n)] = n
	}
}

var (
	// callRef matches call-like occurrences: a bare identifier (dots
	// allowed) or a quoted #"..." identifier followed by an open paren.
	callRef = regexp.MustCompile(`(\b[a-zA-Z_][a-zA-Z0-9_.]*)\s*\(|(#"[^"]+")\s*\(`)

	// builtinRef matches standard-library calls such as Table.AddColumn,
	// which are never user-defined dependencies.
	builtinRef = regexp.MustCompile(`^[A-Z][a-zA-Z0-9_]*\.[A-Z][a-zA-Z0-9_.]*$`)
)

// Calls returns every external call-like reference in body: keywords,
// known data-source functions, and standard-library calls are filtered
// out. The result is deduplicated and sorted.
func Calls(body string) []string {
	seen := map[string]bool{}
	for _, m := range callRef.FindAllStringSubmatch(body, -1) {
		name, quoted := m[1], m[2]
		if name == "" {
			name = quoted
		}
		if name == "" || keywords[name] {
			continue
		}
		if _, ok := dataSourceFuncs[strings.ToLower(name)]; ok {
			continue
		}
		if quoted == "" && builtinRef.MatchString(name) {
			continue
		}
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Suggest scans body for call-like occurrences of any of the known script
// names and returns the subset found, excluding self. Quoted identifiers
// (#"My Query") are matched against their unquoted name. The result is
// advisory: it is never applied to a dependency list automatically.
func Suggest(body string, known []string, self string) []string {
	knownSet := make(map[string]bool, len(known))
	for _, k := range known {
		knownSet[k] = true
	}

	seen := map[string]bool{}
	for _, m := range callRef.FindAllStringSubmatch(body, -1) {
		name := m[1]
		if name == "" {
			name = unquote(m[2])
		}
		if name == "" || name == self || !knownSet[name] {
			continue
		}
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// unquote strips the #"..." wrapper from a quoted identifier.
func unquote(s string) string {
	if strings.HasPrefix(s, `#"`) && strings.HasSuffix(s, `"`) && len(s) > 3 {
		return s[2 : len(s)-1]
	}
	return s
}
