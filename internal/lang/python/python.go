// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package python implements Jupiter's C3 primary language analyzer: an
// AST-based walk over go-tree-sitter's Python grammar that extracts
// functions, classes, methods, imports, call sites, cyclomatic complexity,
// docstring presence, dotted decorator names, and static evidence of
// dynamic registration. The walking style (first pass collects symbols with
// their AST nodes, second pass resolves call sites per symbol) mirrors the
// project's Go analyzer.
package python

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/jupiter/internal/lang"
	"github.com/kraklabs/jupiter/internal/model"
)

// Analyzer is the primary AST-based analyzer for the project's dynamic
// interpreted language.
type Analyzer struct {
	parser *sitter.Parser
	logger *slog.Logger
}

// New builds a Python Analyzer.
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Analyzer{parser: p, logger: logger}
}

// LanguageTag implements lang.Analyzer.
func (a *Analyzer) LanguageTag() string { return "python" }

type symbolWithNode struct {
	record model.SymbolRecord
	node   *sitter.Node
}

// Analyze implements lang.Analyzer.
func (a *Analyzer) Analyze(input lang.FileInput) (model.FileAnalysis, error) {
	tree, err := a.parser.ParseCtx(context.Background(), nil, input.Bytes)
	if err != nil {
		return model.FileAnalysis{}, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		a.logger.Warn("lang.python.syntax_errors", "path", input.Path)
	}

	var symbols []symbolWithNode
	walk(root, input.Bytes, nil, &symbols)

	byName := make(map[string]string, len(symbols))
	for _, s := range symbols {
		byName[s.record.Name] = s.record.ID()
	}

	var calls []model.CallEdge
	records := make([]model.SymbolRecord, 0, len(symbols))
	for _, s := range symbols {
		for _, callee := range extractCallNames(s.node, input.Bytes) {
			resolution := model.CallUnresolved
			if _, ok := byName[callee]; ok {
				resolution = model.CallResolved
			}
			calls = append(calls, model.CallEdge{
				CallerSymbolID: s.record.ID(),
				CalleeName:     callee,
				Resolution:     resolution,
			})
		}
		records = append(records, s.record)
	}

	imports := extractImports(root, input.Bytes)

	return model.FileAnalysis{
		Symbols: records,
		Imports: imports,
		Calls:   calls,
	}, nil
}

// walk recursively collects function/class/method definitions. enclosingClass
// is non-empty when the walk is inside a class body, so methods get a
// qualified name of "Class.method".
func walk(node *sitter.Node, src []byte, enclosingClass *string, out *[]symbolWithNode) {
	if node == nil {
		return
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		switch child.Type() {
		case "decorated_definition":
			def := innerDefinition(child)
			if def == nil {
				continue
			}
			rec := buildSymbol(child, def, src, enclosingClass)
			*out = append(*out, symbolWithNode{record: rec, node: def})
			if def.Type() == "class_definition" {
				name := def.ChildByFieldName("name").Content(src)
				body := def.ChildByFieldName("body")
				walk(body, src, &name, out)
			}
		case "function_definition":
			rec := buildSymbol(child, child, src, enclosingClass)
			*out = append(*out, symbolWithNode{record: rec, node: child})
		case "class_definition":
			rec := buildSymbol(child, child, src, enclosingClass)
			*out = append(*out, symbolWithNode{record: rec, node: child})
			name := child.ChildByFieldName("name").Content(src)
			body := child.ChildByFieldName("body")
			walk(body, src, &name, out)
		default:
			walk(child, src, enclosingClass, out)
		}
	}
}

// innerDefinition returns the function_definition/class_definition wrapped
// by a decorated_definition node.
func innerDefinition(decorated *sitter.Node) *sitter.Node {
	count := int(decorated.ChildCount())
	for i := 0; i < count; i++ {
		c := decorated.Child(i)
		if c.Type() == "function_definition" || c.Type() == "class_definition" {
			return c
		}
	}
	return nil
}

func buildSymbol(outer, def *sitter.Node, src []byte, enclosingClass *string) model.SymbolRecord {
	nameNode := def.ChildByFieldName("name")
	name := ""
	if nameNode != nil {
		name = nameNode.Content(src)
	}

	kind := model.SymbolFunction
	qualified := name
	if def.Type() == "class_definition" {
		kind = model.SymbolClass
	} else if enclosingClass != nil {
		kind = model.SymbolMethod
		qualified = *enclosingClass + "." + name
	}

	start := int(outer.StartPoint().Row) + 1
	end := int(outer.EndPoint().Row) + 1

	rec := model.SymbolRecord{
		Name:                 name,
		QualifiedName:        qualified,
		Kind:                 kind,
		StartLine:            start,
		EndLine:              end,
		DocPresent:           hasDocstring(def, src),
		DecoratorTags:        decoratorTags(outer, src),
		CyclomaticComplexity: complexity(def, src),
	}
	rec.DynamicallyRegistered = hasDynamicRegistration(def, src)
	return rec
}

// decoratorTags renders each decorator in dotted-name form, in source order.
func decoratorTags(outer *sitter.Node, src []byte) []string {
	if outer.Type() != "decorated_definition" {
		return nil
	}
	var tags []string
	count := int(outer.ChildCount())
	for i := 0; i < count; i++ {
		c := outer.Child(i)
		if c.Type() != "decorator" {
			continue
		}
		// A decorator node's child after '@' is an identifier, attribute, or call.
		inner := c
		if inner.ChildCount() > 0 {
			inner = c.Child(int(c.ChildCount()) - 1)
		}
		if inner.Type() == "call" {
			if fn := inner.ChildByFieldName("function"); fn != nil {
				inner = fn
			}
		}
		tags = append(tags, dottedName(inner, src))
	}
	return tags
}

// dottedName renders an identifier or attribute-access chain as a
// dot-joined string, e.g. "router.get".
func dottedName(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	if node.Type() == "attribute" {
		obj := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		if obj != nil && attr != nil {
			return dottedName(obj, src) + "." + attr.Content(src)
		}
	}
	return node.Content(src)
}

// hasDocstring reports whether def's body begins with a bare string
// expression statement.
func hasDocstring(def *sitter.Node, src []byte) bool {
	body := def.ChildByFieldName("body")
	if body == nil || body.ChildCount() == 0 {
		return false
	}
	first := body.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return false
	}
	return first.Child(0).Type() == "string"
}

// branchingTypes contribute one to cyclomatic complexity each, matching
// §4.3: each branching construct and each short-circuit operator.
var branchingTypes = map[string]bool{
	"if_statement": true, "elif_clause": true, "for_statement": true,
	"while_statement": true, "except_clause": true, "with_statement": true,
	"conditional_expression": true, "list_comprehension": true,
	"set_comprehension": true, "dictionary_comprehension": true,
}

func complexity(def *sitter.Node, src []byte) int {
	count := 1
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if branchingTypes[n.Type()] {
			count++
		}
		if n.Type() == "boolean_operator" {
			op := n.ChildByFieldName("operator")
			if op != nil && (op.Content(src) == "and" || op.Content(src) == "or") {
				count++
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(def)
	return count
}

// hasDynamicRegistration recognizes call sites whose callee name is one of a
// fixed set of registration method names (lang.DynamicRegistrationCallees),
// anywhere in def's body. The call's arguments are not inspected.
func hasDynamicRegistration(def *sitter.Node, src []byte) bool {
	found := false
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil || found {
			return
		}
		if n.Type() == "call" {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				name := fn.Content(src)
				if idx := strings.LastIndex(name, "."); idx >= 0 {
					name = name[idx+1:]
				}
				if lang.DynamicRegistrationCallees[name] {
					found = true
					return
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
			if found {
				return
			}
		}
	}
	visit(def)
	return found
}

// extractCallNames returns the unqualified callee name of every call
// expression inside node.
func extractCallNames(node *sitter.Node, src []byte) []string {
	var names []string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := fn.Content(src)
				if idx := strings.LastIndex(name, "."); idx >= 0 {
					name = name[idx+1:]
				}
				names = append(names, name)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(node)
	return names
}

// extractImports walks top-level import_statement/import_from_statement
// nodes.
func extractImports(root *sitter.Node, src []byte) []model.ImportRecord {
	var out []model.ImportRecord
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "import_statement":
			for i := 0; i < int(n.ChildCount()); i++ {
				c := n.Child(i)
				if c.Type() == "dotted_name" || c.Type() == "aliased_import" {
					out = append(out, model.ImportRecord{Target: c.Content(src), External: true})
				}
			}
		case "import_from_statement":
			if mod := n.ChildByFieldName("module_name"); mod != nil {
				out = append(out, model.ImportRecord{Target: mod.Content(src), External: true})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	return out
}
