// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package jsts implements Jupiter's C3 secondary, heuristic language
// analyzer for JS/TS: regex-driven extraction of function/class
// declarations, import statements, and exported names, with approximate
// complexity from counting control-flow tokens. It follows the same
// string/comment-aware character scanning idiom as the project's
// simplified Go fallback parser rather than a full grammar.
package jsts

import (
	"regexp"
	"strings"

	"github.com/kraklabs/jupiter/internal/lang"
	"github.com/kraklabs/jupiter/internal/model"
)

// Analyzer is the secondary, regex-based JS/TS analyzer.
type Analyzer struct{}

// New builds a jsts Analyzer.
func New() *Analyzer { return &Analyzer{} }

// LanguageTag implements lang.Analyzer.
func (a *Analyzer) LanguageTag() string { return "javascript" }

var (
	functionDeclRe = regexp.MustCompile(`(?m)^\s*(export\s+)?(async\s+)?function\s*\*?\s+([A-Za-z_$][\w$]*)\s*\(`)
	methodDeclRe   = regexp.MustCompile(`(?m)^\s*(async\s+)?([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*\{`)
	classDeclRe    = regexp.MustCompile(`(?m)^\s*(export\s+)?(default\s+)?class\s+([A-Za-z_$][\w$]*)`)
	arrowConstRe   = regexp.MustCompile(`(?m)^\s*(export\s+)?const\s+([A-Za-z_$][\w$]*)\s*=\s*(async\s*)?\([^)]*\)\s*=>`)
	importRe       = regexp.MustCompile(`(?m)^\s*import\s+.*?\sfrom\s+['"]([^'"]+)['"]`)
	bareImportRe   = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)
	requireRe      = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	exportNamedRe  = regexp.MustCompile(`(?m)^\s*export\s+(?:const|function|class|let|var)\s+([A-Za-z_$][\w$]*)`)
)

// controlFlowTokens each contribute one to approximate complexity, mirroring
// the primary analyzer's "each branching construct and each short-circuit
// operator contributes one" rule as closely as regex scanning allows.
var controlFlowTokens = []string{"if", "for", "while", "case", "catch", "&&", "||", "?"}

// Analyze implements lang.Analyzer.
func (a *Analyzer) Analyze(input lang.FileInput) (model.FileAnalysis, error) {
	source := string(input.Bytes)
	stripped := stripStringsAndComments(source)

	exported := map[string]bool{}
	for _, m := range exportNamedRe.FindAllStringSubmatch(source, -1) {
		exported[m[1]] = true
	}

	var symbols []model.SymbolRecord
	for _, m := range functionDeclRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[6]:m[7]]
		symbols = append(symbols, buildSymbol(source, m[0], name, model.SymbolFunction, exported[name]))
	}
	for _, m := range arrowConstRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[4]:m[5]]
		symbols = append(symbols, buildSymbol(source, m[0], name, model.SymbolFunction, exported[name]))
	}
	for _, m := range classDeclRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[6]:m[7]]
		symbols = append(symbols, buildSymbol(source, m[0], name, model.SymbolClass, exported[name]))
	}

	var imports []model.ImportRecord
	for _, m := range importRe.FindAllStringSubmatch(source, -1) {
		imports = append(imports, model.ImportRecord{Target: m[1], External: true})
	}
	for _, m := range bareImportRe.FindAllStringSubmatch(source, -1) {
		imports = append(imports, model.ImportRecord{Target: m[1], External: true})
	}
	for _, m := range requireRe.FindAllStringSubmatchIndex(source, -1) {
		if !strings.HasPrefix(stripped[m[0]:], "require(") {
			continue // the call sits inside a string or comment
		}
		imports = append(imports, model.ImportRecord{Target: source[m[2]:m[3]], External: true})
	}

	byName := map[string]string{}
	for _, s := range symbols {
		byName[s.Name] = s.ID()
	}

	var calls []model.CallEdge
	if len(symbols) > 0 {
		callee := findCalls(stripped)
		for _, name := range callee {
			resolution := model.CallUnresolved
			if _, ok := byName[name]; ok {
				resolution = model.CallResolved
			}
			calls = append(calls, model.CallEdge{CalleeName: name, Resolution: resolution})
		}
	}

	return model.FileAnalysis{Symbols: symbols, Imports: imports, Calls: calls}, nil
}

func buildSymbol(source string, offset int, name string, kind model.SymbolKind, exported bool) model.SymbolRecord {
	line := 1 + strings.Count(source[:offset], "\n")
	body := extractBody(source, offset)
	var tags []string
	if exported {
		tags = []string{"export"}
	}
	return model.SymbolRecord{
		Name:                 name,
		QualifiedName:        name,
		Kind:                 kind,
		StartLine:            line,
		EndLine:              line + strings.Count(body, "\n"),
		DocPresent:           hasPrecedingBlockComment(source, offset),
		DecoratorTags:        tags,
		CyclomaticComplexity: approximateComplexity(body),
	}
}

// hasPrecedingBlockComment reports whether a /** ... */ JSDoc block
// immediately precedes offset.
func hasPrecedingBlockComment(source string, offset int) bool {
	before := strings.TrimRight(source[:offset], " \t\n")
	return strings.HasSuffix(before, "*/") && strings.Contains(before, "/**")
}

// extractBody returns the brace-delimited body starting at or after offset,
// using simple depth counting (string/comment aware) the way the project's
// regex-based fallback parser locates function bodies.
func extractBody(source string, offset int) string {
	start := strings.IndexByte(source[offset:], '{')
	if start < 0 {
		return ""
	}
	start += offset
	depth := 0
	inString := byte(0)
	for i := start; i < len(source); i++ {
		c := source[i]
		if inString != 0 {
			if c == inString && source[i-1] != '\\' {
				inString = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			inString = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return source[start : i+1]
			}
		}
	}
	return source[start:]
}

func approximateComplexity(body string) int {
	count := 1
	for _, tok := range controlFlowTokens {
		count += strings.Count(body, tok)
	}
	return count
}

// stripStringsAndComments blanks out string and comment contents so
// findCalls and require() scanning never false-positive inside them,
// preserving line breaks for offset stability.
func stripStringsAndComments(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	inString := byte(0)
	inLineComment := false
	inBlockComment := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
				b.WriteByte(c)
			} else {
				b.WriteByte(' ')
			}
		case inBlockComment:
			if c == '*' && i+1 < len(code) && code[i+1] == '/' {
				inBlockComment = false
				b.WriteString("  ")
				i++
			} else if c == '\n' {
				b.WriteByte(c)
			} else {
				b.WriteByte(' ')
			}
		case inString != 0:
			if c == inString && code[i-1] != '\\' {
				inString = 0
			}
			if c == '\n' {
				b.WriteByte(c)
			} else {
				b.WriteByte(' ')
			}
		case c == '/' && i+1 < len(code) && code[i+1] == '/':
			inLineComment = true
			b.WriteString("  ")
			i++
		case c == '/' && i+1 < len(code) && code[i+1] == '*':
			inBlockComment = true
			b.WriteString("  ")
			i++
		case c == '\'' || c == '"' || c == '`':
			inString = c
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// findCalls extracts potential call-expression callee names, mirroring the
// project's char-by-char identifier-then-paren scan.
func findCalls(code string) []string {
	var calls []string
	i := 0
	for i < len(code) {
		if isIdentStart(code[i]) {
			start := i
			for i < len(code) && isIdentChar(code[i]) {
				i++
			}
			name := code[start:i]
			for i < len(code) && (code[i] == ' ' || code[i] == '\t' || code[i] == '\n') {
				i++
			}
			if i < len(code) && code[i] == '(' && !isJSKeyword(name) {
				if idx := strings.LastIndex(name, "."); idx >= 0 {
					name = name[idx+1:]
				}
				calls = append(calls, name)
			}
			continue
		}
		i++
	}
	return calls
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '$'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}

var jsKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true, "typeof": true, "new": true, "in": true, "of": true,
}

func isJSKeyword(name string) bool {
	if strings.Contains(name, ".") {
		return false
	}
	return jsKeywords[name]
}
