package javasrc

import (
	"github.com/mvp-joe/centrifuge/internal/extract"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Round is the set of compilation units processed together, with every
// annotated element found in them. It satisfies processor.RoundEnv.
type Round struct {
	units       []*Unit
	annotations []extract.AnnotationType
	elements    map[string][]extract.Element
	trees       map[extract.Element]extract.SyntaxTree
}

// Annotations returns the annotation types used in the round, in order of
// first use.
func (r *Round) Annotations() []extract.AnnotationType {
	out := make([]extract.AnnotationType, len(r.annotations))
	copy(out, r.annotations)
	return out
}

// ElementsAnnotatedWith returns the elements carrying the annotation, in file
// order and then source order.
func (r *Round) ElementsAnnotatedWith(annotation string) []extract.Element {
	return r.elements[annotation]
}

// TreeOf returns the declaration a scanner walks for el: the class itself for
// classes, the enclosing type for members.
func (r *Round) TreeOf(el extract.Element) (extract.SyntaxTree, bool) {
	t, ok := r.trees[el]
	return t, ok
}

// Files returns the paths of the round's compilation units.
func (r *Round) Files() []string {
	files := make([]string, len(r.units))
	for i, u := range r.units {
		files[i] = u.Path
	}
	return files
}

// Units returns the parsed compilation units.
func (r *Round) Units() []*Unit {
	return r.units
}

// Close releases the syntax trees. Elements and trees obtained from the
// round must not be used afterwards.
func (r *Round) Close() {
	for _, u := range r.units {
		if u.tree != nil {
			u.tree.Close()
			u.tree = nil
		}
	}
}

// roundBuilder resolves annotations across all units of a round.
type roundBuilder struct {
	round    *Round
	resolver *resolver
	meta     string
	marked   map[string]bool
	seen     map[string]int // annotation qualified name -> index in round.annotations
}

// newRoundBuilder resolves names against the units' own types, the
// configured annotation types and index, the types of earlier rounds.
func newRoundBuilder(units []*Unit, meta string, configured []string, index map[string]bool) *roundBuilder {
	b := &roundBuilder{
		round: &Round{
			units:    units,
			elements: make(map[string][]extract.Element),
			trees:    make(map[extract.Element]extract.SyntaxTree),
		},
		resolver: &resolver{known: make(map[string]bool)},
		meta:     meta,
		marked:   make(map[string]bool),
		seen:     make(map[string]int),
	}

	for qn := range index {
		b.resolver.known[qn] = true
	}
	for _, qn := range configured {
		b.marked[qn] = true
		b.resolver.known[qn] = true
	}
	for _, u := range units {
		for _, td := range u.types {
			b.resolver.known[td.qualifiedName] = true
		}
	}
	return b
}

func (b *roundBuilder) build() *Round {
	// Annotation types declared in the round are marked when they carry the
	// meta-annotation. This must be known before usages are classified.
	for _, u := range b.round.units {
		for _, td := range u.types {
			if td.kind != "annotation_type_declaration" {
				continue
			}
			s := scope{unit: u, decl: td.outer}
			for _, name := range b.annotationsOf(s, td.node) {
				if name == b.meta {
					b.marked[td.qualifiedName] = true
				}
			}
		}
	}

	for _, u := range b.round.units {
		root := u.tree.RootNode()
		for i := 0; i < int(root.ChildCount()); i++ {
			if td := u.declFor(root.Child(uint(i))); td != nil {
				b.visitType(u, td)
			}
		}
	}

	for i := range b.round.annotations {
		at := &b.round.annotations[i]
		at.Marked = b.marked[at.QualifiedName]
	}
	return b.round
}

// visitType emits the type's own element and then its members in source
// order, recursing into nested types where they are declared.
func (b *roundBuilder) visitType(u *Unit, td *typeDecl) {
	outer := scope{unit: u, decl: td.outer}
	tree := extract.SyntaxTree{Root: td.node, Source: u.Source}

	var el extract.Element
	pos := extract.Pos{File: u.Path, Line: u.line(td.node)}
	if td.kind == "class_declaration" {
		el = &extract.Class{QualifiedName: td.qualifiedName, Pos: pos}
	} else {
		el = &extract.Other{Name: td.simple, Decl: declKind(td.kind), Pos: pos}
	}
	b.emit(el, tree, b.annotationsOf(outer, td.node))

	inner := scope{unit: u, decl: td, typeVars: typeVarSet(td, nil)}
	forEachMember(td.node, func(member *sitter.Node) {
		if nested := u.declFor(member); nested != nil {
			b.visitType(u, nested)
			return
		}
		b.visitMember(inner, td, tree, member)
	})
}

func (b *roundBuilder) visitMember(s scope, td *typeDecl, tree extract.SyntaxTree, n *sitter.Node) {
	u := s.unit
	pos := extract.Pos{File: u.Path, Line: u.line(n)}

	switch n.Kind() {
	case "method_declaration":
		names := b.annotationsOf(s, n)
		if len(names) == 0 {
			return
		}
		ms := scope{unit: u, decl: td, typeVars: typeVarSet(td, u.typeParameters(n))}
		el := &extract.Method{
			Enclosing: td.qualifiedName,
			Name:      u.text(n.ChildByFieldName("name")),
			Params:    b.params(ms, n.ChildByFieldName("parameters")),
			Pos:       pos,
		}
		b.emit(el, tree, names)

	case "annotation_type_element_declaration":
		names := b.annotationsOf(s, n)
		if len(names) == 0 {
			return
		}
		el := &extract.Method{
			Enclosing: td.qualifiedName,
			Name:      u.text(n.ChildByFieldName("name")),
			Pos:       pos,
		}
		b.emit(el, tree, names)

	case "constructor_declaration", "compact_constructor_declaration":
		names := b.annotationsOf(s, n)
		if len(names) == 0 {
			return
		}
		cs := scope{unit: u, decl: td, typeVars: typeVarSet(td, u.typeParameters(n))}
		el := &extract.Constructor{
			Enclosing: td.qualifiedName,
			Params:    b.params(cs, n.ChildByFieldName("parameters")),
			Pos:       pos,
		}
		if n.Kind() == "compact_constructor_declaration" {
			el.Params = b.recordComponents(s, td.node)
		}
		b.emit(el, tree, names)

	case "field_declaration", "constant_declaration":
		names := b.annotationsOf(s, n)
		if len(names) == 0 {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			decl := n.Child(uint(i))
			if decl.Kind() != "variable_declarator" {
				continue
			}
			el := &extract.Other{
				Name: u.text(decl.ChildByFieldName("name")),
				Decl: "field",
				Pos:  extract.Pos{File: u.Path, Line: u.line(decl)},
			}
			b.emit(el, tree, names)
		}
	}
}

// emit registers el under each of its annotations.
func (b *roundBuilder) emit(el extract.Element, tree extract.SyntaxTree, annotations []string) {
	if len(annotations) == 0 {
		return
	}
	b.round.trees[el] = tree
	for _, qn := range annotations {
		if _, ok := b.seen[qn]; !ok {
			b.seen[qn] = len(b.round.annotations)
			b.round.annotations = append(b.round.annotations, extract.AnnotationType{QualifiedName: qn})
		}
		b.round.elements[qn] = append(b.round.elements[qn], el)
	}
}

// annotationsOf returns the qualified names of the annotations in the
// declaration's modifiers, without duplicates.
func (b *roundBuilder) annotationsOf(s scope, decl *sitter.Node) []string {
	mods := firstChildOfKind(decl, "modifiers")
	if mods == nil {
		return nil
	}

	var names []string
	dup := make(map[string]bool)
	for i := 0; i < int(mods.ChildCount()); i++ {
		child := mods.Child(uint(i))
		if !isAnnotation(child.Kind()) {
			continue
		}
		qn := b.resolver.annotation(s, s.unit.text(child.ChildByFieldName("name")))
		if qn == "" || dup[qn] {
			continue
		}
		dup[qn] = true
		names = append(names, qn)
	}
	return names
}

// params renders formal parameters. Receiver parameters are not parameters.
func (b *roundBuilder) params(s scope, n *sitter.Node) []extract.Param {
	if n == nil {
		return nil
	}
	u := s.unit

	var params []extract.Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(uint(i))
		switch p.Kind() {
		case "formal_parameter":
			typ := b.resolver.typeName(s, p.ChildByFieldName("type"))
			typ += dims(u.text(p.ChildByFieldName("dimensions")))
			params = append(params, extract.Param{Type: typ, Name: u.text(p.ChildByFieldName("name"))})

		case "spread_parameter":
			var typ, name string
			for j := 0; j < int(p.NamedChildCount()); j++ {
				child := p.NamedChild(uint(j))
				switch child.Kind() {
				case "modifiers":
				case "variable_declarator":
					name = u.text(child.ChildByFieldName("name"))
					typ += dims(u.text(child.ChildByFieldName("dimensions")))
				default:
					if typ == "" {
						typ = b.resolver.typeName(s, child)
					}
				}
			}
			params = append(params, extract.Param{Type: typ + "...", Name: name})
		}
	}
	return params
}

// recordComponents returns the canonical constructor parameters of a record,
// which a compact constructor does not spell out.
func (b *roundBuilder) recordComponents(s scope, record *sitter.Node) []extract.Param {
	params := record.ChildByFieldName("parameters")
	if params == nil {
		params = firstChildOfKind(record, "formal_parameters")
	}
	return b.params(s, params)
}

// declFor returns the typeDecl recorded for a declaration node, or nil.
func (u *Unit) declFor(n *sitter.Node) *typeDecl {
	if n == nil || !isTypeDeclaration(n.Kind()) {
		return nil
	}
	for _, td := range u.types {
		if td.node.StartByte() == n.StartByte() && td.node.Kind() == n.Kind() {
			return td
		}
	}
	return nil
}

func typeVarSet(td *typeDecl, extra []string) map[string]bool {
	vars := make(map[string]bool)
	for d := td; d != nil; d = d.outer {
		for _, name := range d.typeParams {
			vars[name] = true
		}
	}
	for _, name := range extra {
		vars[name] = true
	}
	return vars
}

func declKind(kind string) string {
	switch kind {
	case "interface_declaration":
		return "interface"
	case "enum_declaration":
		return "enum"
	case "record_declaration":
		return "record"
	case "annotation_type_declaration":
		return "annotation"
	}
	return "class"
}
