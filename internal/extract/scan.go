package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// SyntaxTree is the slice of a parsed compilation unit a scanner walks: the
// declaration node it starts from plus the source bytes it was parsed from.
type SyntaxTree struct {
	Root   *sitter.Node
	Source []byte
}

// Text returns the literal source text of n.
func (t SyntaxTree) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(t.Source[n.StartByte():n.EndByte()])
}

// Java node kinds the scanners care about.
const (
	kindStaticInitializer  = "static_initializer"
	kindMethodDecl         = "method_declaration"
	kindConstructorDecl    = "constructor_declaration"
	kindCompactConstructor = "compact_constructor_declaration"
	kindClassDecl          = "class_declaration"
	kindInterfaceDecl      = "interface_declaration"
	kindEnumDecl           = "enum_declaration"
	kindRecordDecl         = "record_declaration"
	kindAnnotationTypeDecl = "annotation_type_declaration"
	kindObjectCreation     = "object_creation_expression"
	kindClassBody          = "class_body"
	staticBlockSeparator   = "\n\n"
)

// Source returns the source text associated with el: static blocks for a
// class, the body for a method or constructor, and the simple name for
// anything else.
func Source(el Element, tree SyntaxTree) string {
	switch el.(type) {
	case *Class:
		return ScanClass(el, tree)
	case *Method, *Constructor:
		return ScanMethod(el, tree)
	case *Other:
		return el.SimpleName()
	}
	return ""
}

// ScanClass collects every static initializer reachable from the class
// declaration, in source order, and joins their text with a blank line.
// Static blocks of nested classes are included. Non-class elements yield "".
func ScanClass(el Element, tree SyntaxTree) string {
	if _, ok := el.(*Class); !ok || tree.Root == nil {
		return ""
	}

	var blocks []string
	walkTree(tree.Root, func(n *sitter.Node) bool {
		if n.Kind() == kindStaticInitializer {
			blocks = append(blocks, tree.Text(n))
		}
		return true
	})
	return strings.Join(blocks, staticBlockSeparator)
}

// ScanMethod returns the body of the first method or constructor declared in
// tree whose simple name equals the element's. Only the name is compared, so
// with overloads the first declaration in source order wins regardless of
// the element's parameters. Declarations without a body yield "".
//
// The walk covers the members of the root declaration only: bodies and
// nested or anonymous types (enum constant bodies included) are not entered.
func ScanMethod(el Element, tree SyntaxTree) string {
	switch el.(type) {
	case *Method, *Constructor:
	default:
		return ""
	}
	if tree.Root == nil {
		return ""
	}

	name := el.SimpleName()
	own := tree.Root.ChildByFieldName("body")
	var match *sitter.Node
	walkTree(tree.Root, func(n *sitter.Node) bool {
		if match != nil {
			return false
		}
		if n != tree.Root && isTypeDeclaration(n.Kind()) {
			return false
		}
		if n.Kind() == kindObjectCreation {
			return false
		}
		// Enum constant bodies are anonymous classes.
		if n.Kind() == kindClassBody && !sameNode(n, own) {
			return false
		}
		if declName, ok := executableName(n, tree); ok {
			if declName == name {
				match = n
			}
			return false
		}
		return true
	})

	if match == nil {
		return ""
	}
	return tree.Text(match.ChildByFieldName("body"))
}

// executableName reports the simple name of a method or constructor
// declaration node. Constructors are named ConstructorName.
func executableName(n *sitter.Node, tree SyntaxTree) (string, bool) {
	switch n.Kind() {
	case kindMethodDecl:
		return tree.Text(n.ChildByFieldName("name")), true
	case kindConstructorDecl, kindCompactConstructor:
		return ConstructorName, true
	}
	return "", false
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil &&
		a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

func isTypeDeclaration(kind string) bool {
	switch kind {
	case kindClassDecl, kindInterfaceDecl, kindEnumDecl, kindRecordDecl, kindAnnotationTypeDecl:
		return true
	}
	return false
}

// walkTree walks the tree depth-first in source order, calling visitor for
// each node. Children are skipped when visitor returns false.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}
