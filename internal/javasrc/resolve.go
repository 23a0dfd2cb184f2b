package javasrc

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// javaLang lists the java.lang types that are visible without an import and
// likely to appear in signatures or as annotations.
var javaLang = map[string]bool{
	"AutoCloseable": true, "Boolean": true, "Byte": true, "CharSequence": true,
	"Character": true, "Class": true, "ClassLoader": true, "Cloneable": true,
	"Comparable": true, "Deprecated": true, "Double": true, "Enum": true,
	"Error": true, "Exception": true, "Float": true, "FunctionalInterface": true,
	"IllegalArgumentException": true, "IllegalStateException": true,
	"IndexOutOfBoundsException": true, "Integer": true, "InterruptedException": true,
	"Iterable": true, "Long": true, "Math": true, "NullPointerException": true,
	"Number": true, "Object": true, "Override": true, "Record": true,
	"Runnable": true, "RuntimeException": true, "SafeVarargs": true, "Short": true,
	"String": true, "StringBuffer": true, "StringBuilder": true,
	"SuppressWarnings": true, "System": true, "Thread": true, "Throwable": true,
	"UnsupportedOperationException": true, "Void": true,
}

// resolver turns names written in source into qualified names using what the
// round knows: imports, declared types and configured annotation types.
type resolver struct {
	known map[string]bool // qualified names of types declared in the round or configured
}

// scope is the lexical position a name is resolved from.
type scope struct {
	unit     *Unit
	decl     *typeDecl       // innermost enclosing type, nil at top level
	typeVars map[string]bool // type variables visible at this point
}

// annotation resolves the name of an annotation usage.
func (r *resolver) annotation(s scope, name string) string {
	return r.name(s, name, true)
}

// name resolves a simple or partially qualified type name. Unknown simple
// names are assumed to live in the unit's package unless on-demand imports
// make that ambiguous; annotations always take the package fallback.
func (r *resolver) name(s scope, name string, packageFallback bool) string {
	name = strings.Join(strings.Fields(name), "")
	if head, rest, found := strings.Cut(name, "."); found {
		if qn, ok := r.lookup(s, head); ok {
			return qn + "." + rest
		}
		return name
	}

	if qn, ok := r.lookup(s, name); ok {
		return qn
	}
	if javaLang[name] {
		return "java.lang." + name
	}
	if packageFallback || len(s.unit.onDemand) == 0 {
		return s.unit.qualify(name)
	}
	return name
}

// lookup finds a simple type name in scope: enclosing and member types,
// single-type imports, the unit's package, then on-demand imports.
func (r *resolver) lookup(s scope, name string) (string, bool) {
	for d := s.decl; d != nil; d = d.outer {
		if d.simple == name {
			return d.qualifiedName, true
		}
		if member := d.qualifiedName + "." + name; r.known[member] {
			return member, true
		}
	}

	if qn, ok := s.unit.imports[name]; ok {
		return qn, true
	}
	if qn := s.unit.qualify(name); r.known[qn] {
		return qn, true
	}
	for _, pkg := range s.unit.onDemand {
		if qn := pkg + "." + name; r.known[qn] {
			return qn, true
		}
	}
	return "", false
}

// typeName renders a type node the way javac prints parameter types:
// qualified class names, type variables as written, generics as
// base<A,B>, arrays as T[].
func (r *resolver) typeName(s scope, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	u := s.unit

	switch n.Kind() {
	case "type_identifier":
		name := u.text(n)
		if s.typeVars[name] {
			return name
		}
		return r.name(s, name, false)

	case "scoped_type_identifier":
		var parts []string
		collectIdentifiers(n, u, &parts)
		if len(parts) > 0 && s.typeVars[parts[0]] {
			return strings.Join(parts, ".")
		}
		return r.name(s, strings.Join(parts, "."), false)

	case "generic_type":
		var base string
		var args []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(uint(i))
			switch child.Kind() {
			case "type_arguments":
				for j := 0; j < int(child.NamedChildCount()); j++ {
					arg := child.NamedChild(uint(j))
					if isAnnotation(arg.Kind()) {
						continue
					}
					args = append(args, r.typeName(s, arg))
				}
			default:
				if base == "" {
					base = r.typeName(s, child)
				}
			}
		}
		return base + "<" + strings.Join(args, ",") + ">"

	case "array_type":
		elem := r.typeName(s, n.ChildByFieldName("element"))
		return elem + dims(u.text(n.ChildByFieldName("dimensions")))

	case "wildcard":
		out := "?"
		bound := ""
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(uint(i))
			switch {
			case child.Kind() == "extends" || child.Kind() == "super":
				bound = child.Kind()
			case child.IsNamed() && !isAnnotation(child.Kind()) && bound != "":
				out += " " + bound + " " + r.typeName(s, child)
			}
		}
		return out

	case "annotated_type":
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			child := n.NamedChild(uint(i))
			if !isAnnotation(child.Kind()) {
				return r.typeName(s, child)
			}
		}
	}

	// Primitives, void and anything unrecognised render as written.
	return strings.Join(strings.Fields(u.text(n)), " ")
}

// collectIdentifiers gathers the identifier segments of a scoped type,
// skipping type annotations.
func collectIdentifiers(n *sitter.Node, u *Unit, parts *[]string) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		switch child.Kind() {
		case "type_identifier", "identifier":
			*parts = append(*parts, u.text(child))
		case "scoped_type_identifier":
			collectIdentifiers(child, u, parts)
		}
	}
}

func dims(text string) string {
	return strings.Repeat("[]", strings.Count(text, "["))
}

func isAnnotation(kind string) bool {
	return kind == "marker_annotation" || kind == "annotation"
}
