package extract

import "strings"

// DeriveID returns the canonical identifier of an element.
//
//   - Class: the fully qualified class name.
//   - Method: {enclosing}#{name}({type} {param},...)
//   - Constructor: {enclosing}#<init>({type} {param},...)
//   - anything else: the simple name.
//
// Every parameter is followed by a comma, including the last one. Downstream
// consumers key on this exact format.
func DeriveID(el Element) string {
	switch e := el.(type) {
	case *Class:
		return e.QualifiedName
	case *Method:
		return executableID(e.Enclosing, e.Name, e.Params)
	case *Constructor:
		return executableID(e.Enclosing, ConstructorName, e.Params)
	case *Other:
		return e.Name
	}
	return ""
}

func executableID(enclosing, name string, params []Param) string {
	var b strings.Builder
	b.WriteString(enclosing)
	b.WriteByte('#')
	b.WriteString(name)
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(p.Type)
		b.WriteByte(' ')
		b.WriteString(p.Name)
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}
