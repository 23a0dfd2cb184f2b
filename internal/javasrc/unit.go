package javasrc

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Unit is one parsed compilation unit. Its tree stays alive until the round
// that owns it is closed.
type Unit struct {
	Path    string
	Source  []byte
	Package string

	tree     *sitter.Tree
	imports  map[string]string // simple name -> qualified name (single-type imports)
	onDemand []string          // packages or types imported with .*
	types    []*typeDecl       // every type declaration, outer before nested
}

// typeDecl is a type declaration and the scope it opens.
type typeDecl struct {
	node          *sitter.Node
	kind          string
	simple        string
	qualifiedName string
	typeParams    []string
	outer         *typeDecl
}

func newUnit(path string, source []byte, tree *sitter.Tree) *Unit {
	u := &Unit{
		Path:    path,
		Source:  source,
		tree:    tree,
		imports: make(map[string]string),
	}

	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		switch child.Kind() {
		case "package_declaration":
			u.Package = u.text(firstChildOfKind(child, "scoped_identifier", "identifier"))
		case "import_declaration":
			u.addImport(child)
		}
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		u.collectTypes(root.Child(uint(i)), nil)
	}

	return u
}

// text returns the literal source text of n.
func (u *Unit) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(u.Source[n.StartByte():n.EndByte()])
}

func (u *Unit) line(n *sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

// qualify prefixes name with the unit's package.
func (u *Unit) qualify(name string) string {
	if u.Package == "" {
		return name
	}
	return u.Package + "." + name
}

func (u *Unit) addImport(n *sitter.Node) {
	var static, wildcard bool
	var name string
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		switch child.Kind() {
		case "static":
			static = true
		case "asterisk":
			wildcard = true
		case "scoped_identifier", "identifier":
			name = u.text(child)
		}
	}

	// Static imports bring members, not types, into scope.
	if static || name == "" {
		return
	}
	if wildcard {
		u.onDemand = append(u.onDemand, name)
		return
	}
	u.imports[lastSegment(name)] = name
}

// collectTypes records n and every type declared in its body.
func (u *Unit) collectTypes(n *sitter.Node, outer *typeDecl) {
	if n == nil || !isTypeDeclaration(n.Kind()) {
		return
	}

	simple := u.text(n.ChildByFieldName("name"))
	td := &typeDecl{
		node:       n,
		kind:       n.Kind(),
		simple:     simple,
		typeParams: u.typeParameters(n),
		outer:      outer,
	}
	if outer != nil {
		td.qualifiedName = outer.qualifiedName + "." + simple
	} else {
		td.qualifiedName = u.qualify(simple)
	}
	u.types = append(u.types, td)

	forEachMember(n, func(member *sitter.Node) {
		u.collectTypes(member, td)
	})
}

// typeParameters returns the names of the type variables a class or method
// declares.
func (u *Unit) typeParameters(n *sitter.Node) []string {
	params := n.ChildByFieldName("type_parameters")
	if params == nil {
		params = firstChildOfKind(n, "type_parameters")
	}
	if params == nil {
		return nil
	}

	var names []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		tp := params.NamedChild(uint(i))
		if tp.Kind() != "type_parameter" {
			continue
		}
		if id := firstChildOfKind(tp, "type_identifier", "identifier"); id != nil {
			names = append(names, u.text(id))
		}
	}
	return names
}

// forEachMember calls fn for every member declaration in a type's body.
// Enum bodies contribute the declarations that follow the constants.
func forEachMember(typeNode *sitter.Node, fn func(*sitter.Node)) {
	body := typeNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(uint(i))
		if child.Kind() == "enum_body_declarations" {
			for j := 0; j < int(child.ChildCount()); j++ {
				fn(child.Child(uint(j)))
			}
			continue
		}
		fn(child)
	}
}

func isTypeDeclaration(kind string) bool {
	switch kind {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		return true
	}
	return false
}

// firstChildOfKind finds the first child node with one of the given kinds.
func firstChildOfKind(node *sitter.Node, kinds ...string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		for _, k := range kinds {
			if child.Kind() == k {
				return child
			}
		}
	}
	return nil
}

func lastSegment(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
