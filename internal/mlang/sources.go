package mlang

import (
	"regexp"
	"strings"
)

// TokenKind classifies one lexical token of an M body.
type TokenKind int

const (
	TokenOther TokenKind = iota
	TokenComment
	TokenString
	TokenKeyword
	TokenDataSource
	TokenFunction
	TokenNumber
	TokenOperator
	TokenIdentifier
)

// Token is one lexical token. Concatenating Text over a token slice
// reproduces the input exactly.
type Token struct {
	Text string
	Kind TokenKind
}

// ArgKind classifies the first argument of a data-source call.
type ArgKind string

const (
	ArgLiteral  ArgKind = "literal"
	ArgVariable ArgKind = "variable"
	ArgRecord   ArgKind = "record"
	ArgList     ArgKind = "list"
	ArgOther    ArgKind = "other"
)

// DataSource describes one external data-source call found in a body.
type DataSource struct {
	Func     string // canonical function name, e.g. "Csv.Document"
	Argument string // raw first-argument text
	Kind     ArgKind
	Value    string // literal text, variable name, or the raw expression
}

const operatorChars = "()[]{}=<>+-*/&,;"

// Tokenize splits body into classified tokens. Whitespace and anything
// else unrecognized come back as TokenOther so callers can walk the
// stream without losing text.
func Tokenize(body string) []Token {
	var toks []Token
	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == '/' && i+1 < len(body) && body[i+1] == '/':
			end := strings.IndexByte(body[i:], '\n')
			if end < 0 {
				end = len(body) - i
			}
			toks = append(toks, Token{Text: body[i : i+end], Kind: TokenComment})
			i += end
		case c == '/' && i+1 < len(body) && body[i+1] == '*':
			end := strings.Index(body[i+2:], "*/")
			if end < 0 {
				toks = append(toks, Token{Text: body[i:], Kind: TokenComment})
				i = len(body)
				break
			}
			toks = append(toks, Token{Text: body[i : i+2+end+2], Kind: TokenComment})
			i += 2 + end + 2
		case c == '"':
			end := strings.IndexByte(body[i+1:], '"')
			if end < 0 {
				toks = append(toks, Token{Text: body[i:], Kind: TokenString})
				i = len(body)
				break
			}
			toks = append(toks, Token{Text: body[i : i+1+end+1], Kind: TokenString})
			i += 1 + end + 1
		case c == '#' && i+1 < len(body) && body[i+1] == '"':
			end := strings.IndexByte(body[i+2:], '"')
			if end < 0 {
				toks = append(toks, Token{Text: body[i:], Kind: TokenString})
				i = len(body)
				break
			}
			toks = append(toks, Token{Text: body[i : i+2+end+1], Kind: TokenString})
			i += 2 + end + 1
		case isWordStart(c):
			j := i + 1
			for j < len(body) && isWordPart(body[j]) {
				j++
			}
			word := body[i:j]
			toks = append(toks, Token{Text: word, Kind: classifyWord(word)})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(body) && body[j] >= '0' && body[j] <= '9' {
				j++
			}
			if j < len(body) && body[j] == '.' {
				j++
				for j < len(body) && body[j] >= '0' && body[j] <= '9' {
					j++
				}
			}
			toks = append(toks, Token{Text: body[i:j], Kind: TokenNumber})
			i = j
		case strings.IndexByte(operatorChars, c) >= 0:
			toks = append(toks, Token{Text: body[i : i+1], Kind: TokenOperator})
			i++
		case isSpace(c):
			j := i + 1
			for j < len(body) && isSpace(body[j]) {
				j++
			}
			toks = append(toks, Token{Text: body[i:j], Kind: TokenOther})
			i = j
		default:
			toks = append(toks, Token{Text: body[i : i+1], Kind: TokenOther})
			i++
		}
	}
	return toks
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordPart(c byte) bool {
	return isWordStart(c) || c == '.' || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func classifyWord(word string) TokenKind {
	lower := strings.ToLower(word)
	switch {
	case !strings.Contains(word, ".") && keywords[lower]:
		return TokenKeyword
	case dataSourceFuncs[lower] != "":
		return TokenDataSource
	case builtinRef.MatchString(word):
		return TokenFunction
	}
	return TokenIdentifier
}

// DataSources finds the external data-source calls in body and
// classifies the first argument of each. The scan is token-based, so
// calls inside comments and strings are ignored.
func DataSources(body string) []DataSource {
	toks := Tokenize(body)
	var out []DataSource
	for i := 0; i < len(toks); {
		if toks[i].Kind != TokenDataSource {
			i++
			continue
		}
		fn := dataSourceFuncs[strings.ToLower(toks[i].Text)]

		// The call form requires an opening paren right after the name.
		j := i + 1
		for j < len(toks) && toks[j].Kind == TokenOther && strings.TrimSpace(toks[j].Text) == "" {
			j++
		}
		if j >= len(toks) || toks[j].Text != "(" {
			i++
			continue
		}

		// Capture the first argument: everything up to the matching
		// close paren or a top-level comma. Commas inside records and
		// lists do not end the argument.
		level := 1
		brackets := 0
		end := -1
		for k := j + 1; k < len(toks); k++ {
			switch toks[k].Text {
			case "(":
				level++
			case ")":
				level--
				if level == 0 {
					end = k
				}
			case "[", "{":
				brackets++
			case "]", "}":
				brackets--
			case ",":
				if level == 1 && brackets == 0 {
					end = k
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			i++
			continue
		}

		var sb strings.Builder
		for _, t := range toks[j+1 : end] {
			sb.WriteString(t.Text)
		}
		arg := strings.TrimSpace(sb.String())
		kind, val := classifyArg(arg)
		out = append(out, DataSource{Func: fn, Argument: arg, Kind: kind, Value: val})
		i = end
	}
	return out
}

var (
	bareIdent = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	callExpr  = regexp.MustCompile(`(?s)^([a-zA-Z0-9_.]+)\s*\((.*)\)$`)
)

// classifyArg reports what kind of expression the argument is and the
// value worth surfacing for it. Single-level call wrappers such as
// Text.Trim(path) are looked through.
func classifyArg(arg string) (ArgKind, string) {
	switch {
	case len(arg) >= 2 && strings.HasPrefix(arg, `"`) && strings.HasSuffix(arg, `"`):
		return ArgLiteral, arg[1 : len(arg)-1]
	case len(arg) >= 3 && strings.HasPrefix(arg, `#"`) && strings.HasSuffix(arg, `"`):
		return ArgLiteral, arg[2 : len(arg)-1]
	case strings.HasPrefix(arg, "["):
		return ArgRecord, "[record]"
	case strings.HasPrefix(arg, "{"):
		return ArgList, "{list}"
	case bareIdent.MatchString(arg):
		return ArgVariable, arg
	}
	if m := callExpr.FindStringSubmatch(arg); m != nil {
		inner := strings.TrimSpace(m[2])
		if bareIdent.MatchString(inner) {
			return ArgVariable, inner
		}
		if strings.HasPrefix(inner, `"`) {
			return ArgLiteral, strings.Trim(inner, ` "`)
		}
	}
	return ArgOther, arg
}
