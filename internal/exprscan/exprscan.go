// Package exprscan is the expression analyzer (spec §4.5). It is
// intentionally not a SQL parser: a tokenizer plus an
// aggregate-function recognizer, sufficient to drive validation
// warnings but not to prove anything about a fragment's semantics.
package exprscan

import (
	"strings"
	"unicode"
)

// aggregateFunctions is the recognized set of top-level aggregate
// calls (spec §4.5).
var aggregateFunctions = map[string]bool{
	"SUM": true, "COUNT": true, "AVG": true,
	"MIN": true, "MAX": true, "STDDEV": true, "VARIANCE": true,
}

// sqlKeywords are barewords that never count as a column reference.
var sqlKeywords = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NULL": true, "IS": true,
	"IN": true, "LIKE": true, "BETWEEN": true, "CASE": true, "WHEN": true,
	"THEN": true, "ELSE": true, "END": true, "TRUE": true, "FALSE": true,
	"DISTINCT": true, "AS": true, "ASC": true, "DESC": true, "OVER": true,
	"PARTITION": true, "BY": true, "ORDER": true, "INTERVAL": true,
}

// commonFunctions are scalar built-ins that are not aggregates but
// also are not column references when they appear as a call target.
var commonFunctions = map[string]bool{
	"TRIM": true, "UPPER": true, "LOWER": true, "COALESCE": true,
	"CAST": true, "CONCAT": true, "SUBSTRING": true, "ROUND": true,
	"DATE": true, "DATEADD": true, "DATEDIFF": true, "NULLIF": true,
	"LEFT": true, "RIGHT": true, "REPLACE": true, "ROW_NUMBER": true,
	"RANK": true, "LAG": true, "LEAD": true,
}

// IsBuiltin reports whether name is one of the analyzer's own
// recognized function identifiers (aggregate or common scalar),
// independent of any dialect. Callers cross-checking a model's
// function calls against a specific engine should also consult that
// dialect's own ReservedFunctions before flagging a call as unknown.
func IsBuiltin(name string) bool {
	upper := strings.ToUpper(name)
	return aggregateFunctions[upper] || commonFunctions[upper]
}

// Macro recognizes dialect extension-point placeholders such as
// @newpk() or @Feature('name'). Dialects declare support for these
// independently (spec §9); the analyzer only extracts them.
type Macro struct {
	Name string
	Args string
}

// Result is what the analyzer extracts from one scalar SQL fragment.
type Result struct {
	ReferencedColumns []string // bareword identifiers, de-duplicated, first-seen order
	IsAggregate       bool     // a recognized aggregate call appears at the top level
	FunctionsUsed     []string // every function identifier invoked, de-duplicated, first-seen order
	Macros            []Macro
}

// Analyze tokenizes expr and extracts column references, aggregate
// markers, and invoked function names.
func Analyze(expr string) Result {
	toks := tokenize(expr)
	var res Result
	seenCol := map[string]bool{}
	seenFn := map[string]bool{}

	for i, tok := range toks {
		if !tok.isIdent {
			continue
		}
		upper := strings.ToUpper(tok.text)

		// A macro reference: @name(...)
		if i > 0 && toks[i-1].text == "@" {
			args := ""
			if i+1 < len(toks) && toks[i+1].text == "(" {
				args = captureParenContents(toks, i+1)
			}
			res.Macros = append(res.Macros, Macro{Name: tok.text, Args: args})
			continue
		}

		isCall := i+1 < len(toks) && toks[i+1].text == "("
		if isCall {
			if !seenFn[upper] {
				seenFn[upper] = true
				res.FunctionsUsed = append(res.FunctionsUsed, tok.text)
			}
			if aggregateFunctions[upper] {
				res.IsAggregate = true
			}
			continue
		}

		if sqlKeywords[upper] || commonFunctions[upper] || aggregateFunctions[upper] {
			continue
		}
		// Numeric literal barewords (already excluded by tokenizer via
		// isIdent) and the special alias-dot case: "alias.column" scans
		// as two idents joined by a dot token; both sides are kept as
		// referenced columns (the caller resolves/qualifies them).
		if !seenCol[tok.text] {
			seenCol[tok.text] = true
			res.ReferencedColumns = append(res.ReferencedColumns, tok.text)
		}
	}

	return res
}

func captureParenContents(toks []token, openIdx int) string {
	depth := 0
	var sb strings.Builder
	for i := openIdx; i < len(toks); i++ {
		t := toks[i]
		if t.text == "(" {
			depth++
			if depth == 1 {
				continue
			}
		}
		if t.text == ")" {
			depth--
			if depth == 0 {
				break
			}
		}
		sb.WriteString(t.text)
	}
	return sb.String()
}

type token struct {
	text    string
	isIdent bool
}

// tokenize splits a SQL scalar fragment into a coarse token stream:
// identifiers/keywords (letters, digits, underscore, starting with a
// letter or underscore), string literals (skipped whole), numbers
// (skipped, not identifiers), and single-character punctuation. This
// is a tokenizer, not a parser — it does not build an AST and makes no
// claim about operator precedence or statement structure.
func tokenize(s string) []token {
	var out []token
	r := []rune(s)
	n := len(r)
	i := 0
	for i < n {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '\'':
			i++
			for i < n && r[i] != '\'' {
				i++
			}
			i++ // consume closing quote
		case c == '"':
			i++
			start := i
			for i < n && r[i] != '"' {
				i++
			}
			out = append(out, token{text: string(r[start:i]), isIdent: true})
			i++
		case unicode.IsDigit(c):
			start := i
			for i < n && (unicode.IsDigit(r[i]) || r[i] == '.') {
				i++
			}
			out = append(out, token{text: string(r[start:i]), isIdent: false})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < n && (unicode.IsLetter(r[i]) || unicode.IsDigit(r[i]) || r[i] == '_') {
				i++
			}
			out = append(out, token{text: string(r[start:i]), isIdent: true})
		default:
			out = append(out, token{text: string(c), isIdent: false})
			i++
		}
	}
	return out
}
