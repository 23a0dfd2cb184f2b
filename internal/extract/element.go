// Package extract derives element identifiers and locates the source text
// attached to annotated Java declarations.
//
// Elements are a closed set of variants (Class, Method, Constructor, Other).
// Callers switch on the concrete type; the unexported marker method keeps
// the set sealed to this package.
package extract

import "strings"

// Kind discriminates Element variants.
type Kind int

const (
	KindClass Kind = iota
	KindMethod
	KindConstructor
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	default:
		return "other"
	}
}

// ConstructorName is the simple name shared by every constructor. It can never
// collide with a user method, even one named after its class.
const ConstructorName = "<init>"

// Pos locates a declaration in its source file (1-indexed line).
type Pos struct {
	File string
	Line int
}

// Element is an annotated program element reported by the front-end.
type Element interface {
	Kind() Kind
	SimpleName() string
	Position() Pos
	element()
}

// AnnotationType describes an annotation type present in a round.
type AnnotationType struct {
	QualifiedName string
	// Marked reports whether the annotation type is itself annotated with the
	// extraction meta-annotation (or configured as such).
	Marked bool
}

// SimpleName returns the last segment of the qualified name.
func (a AnnotationType) SimpleName() string {
	return lastSegment(a.QualifiedName)
}

// Param is one formal parameter of a method or constructor.
type Param struct {
	Type string
	Name string
}

// Class is a class declaration.
type Class struct {
	QualifiedName string
	Pos           Pos
}

func (c *Class) Kind() Kind         { return KindClass }
func (c *Class) SimpleName() string { return lastSegment(c.QualifiedName) }
func (c *Class) Position() Pos      { return c.Pos }
func (c *Class) element()           {}

// Method is a method declaration inside a type.
type Method struct {
	Enclosing string // qualified name of the declaring type
	Name      string
	Params    []Param
	Pos       Pos
}

func (m *Method) Kind() Kind         { return KindMethod }
func (m *Method) SimpleName() string { return m.Name }
func (m *Method) Position() Pos      { return m.Pos }
func (m *Method) element()           {}

// Constructor is a constructor declaration inside a type.
type Constructor struct {
	Enclosing string
	Params    []Param
	Pos       Pos
}

func (c *Constructor) Kind() Kind         { return KindConstructor }
func (c *Constructor) SimpleName() string { return ConstructorName }
func (c *Constructor) Position() Pos      { return c.Pos }
func (c *Constructor) element()           {}

// Other covers annotated declarations that are neither classes nor
// executables: interfaces, enums, records, annotation types and fields.
type Other struct {
	Name string
	Decl string // e.g. "interface", "enum", "field"
	Pos  Pos
}

func (o *Other) Kind() Kind         { return KindOther }
func (o *Other) SimpleName() string { return o.Name }
func (o *Other) Position() Pos      { return o.Pos }
func (o *Other) element()           {}

func lastSegment(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
