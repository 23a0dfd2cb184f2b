package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for extract:
// - DeriveID renders classes verbatim
// - DeriveID keeps the trailing comma after every parameter
// - DeriveID renders a zero-arg constructor without a comma
// - DeriveID falls back to the simple name for other kinds
// - DeriveID is deterministic
// - ScanClass returns "" for 0 static blocks and the exact text for 1 and 3
// - ScanClass ignores instance initializer blocks
// - ScanClass includes static blocks of nested classes
// - ScanClass returns "" for non-class elements
// - ScanMethod returns the exact body of a uniquely named method
// - ScanMethod returns the first overload in source order
// - ScanMethod matches constructors by <init>, not by class name
// - ScanMethod returns "" for abstract methods and missing names
// - ScanMethod does not match methods of nested or anonymous classes, enum constant bodies included
// - Record.Format renders "// id\nsource\n\n"

func TestDeriveID_Class(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "com.example.Outer.Inner", DeriveID(&Class{QualifiedName: "com.example.Outer.Inner"}))
}

func TestDeriveID_MethodTrailingComma(t *testing.T) {
	t.Parallel()

	m := &Method{
		Enclosing: "pkg.Class",
		Name:      "onCreate",
		Params:    []Param{{Type: "android.os.Bundle", Name: "state"}},
	}
	assert.Equal(t, "pkg.Class#onCreate(android.os.Bundle state,)", DeriveID(m))

	noArgs := &Method{Enclosing: "P.C", Name: "f"}
	assert.Equal(t, "P.C#f()", DeriveID(noArgs))
}

func TestDeriveID_Constructor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pkg.Class#<init>()", DeriveID(&Constructor{Enclosing: "pkg.Class"}))

	c := &Constructor{
		Enclosing: "pkg.Class",
		Params:    []Param{{Type: "TypeA", Name: "a"}, {Type: "TypeB", Name: "b"}},
	}
	assert.Equal(t, "pkg.Class#<init>(TypeA a,TypeB b,)", DeriveID(c))
}

func TestDeriveID_OtherUsesSimpleName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Mode", DeriveID(&Other{Name: "Mode", Decl: "enum"}))
}

func TestDeriveID_Deterministic(t *testing.T) {
	t.Parallel()

	m := &Method{Enclosing: "a.B", Name: "run", Params: []Param{{Type: "int", Name: "n"}}}
	assert.Equal(t, DeriveID(m), DeriveID(m))
}

const staticBlocksSource = `package p;

class Zero {
    int x;
    { x = 1; }
}

class One {
    static { System.out.println("one"); }
}

class Three {
    static {
        init(1);
    }
    { instanceOnly(); }
    static { init(2); }
    void m() {}
    static { init(3); }
}

class Outer {
    static { outer(); }
    static class Nested {
        static { nested(); }
    }
}
`

func TestScanClass_StaticBlockCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		class    string
		expected string
	}{
		{"no static blocks", "Zero", ""},
		{"one static block", "One", `static { System.out.println("one"); }`},
		{
			"three static blocks",
			"Three",
			"static {\n        init(1);\n    }\n\nstatic { init(2); }\n\nstatic { init(3); }",
		},
		{"nested class blocks", "Outer", "static { outer(); }\n\nstatic { nested(); }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := typeTree(t, staticBlocksSource, tt.class)
			el := &Class{QualifiedName: "p." + tt.class}
			got := ScanClass(el, tree)
			assert.Equal(t, tt.expected, got)
			assert.NotContains(t, got, "instanceOnly")
		})
	}
}

func TestScanClass_NonClassElement(t *testing.T) {
	t.Parallel()

	tree := typeTree(t, staticBlocksSource, "One")
	assert.Equal(t, "", ScanClass(&Method{Enclosing: "p.One", Name: "m"}, tree))
	assert.Equal(t, "", ScanClass(&Class{QualifiedName: "p.One"}, SyntaxTree{}))
}

const methodsSource = `package p;

abstract class C {
    C() { this(0); }
    C(int n) { this.n = n; }

    int f() { return 1; }

    void over(String s) { first(); }
    void over(int i) { second(); }

    abstract void pending();

    void C() { userMethodNamedLikeClass(); }

    void anon() {
        Runnable r = new Runnable() {
            public void run() { anonymous(); }
        };
    }

    static class Inner {
        void later() { inner(); }
    }

    void later() { outer(); }
}
`

func TestScanMethod_UniqueMethod(t *testing.T) {
	t.Parallel()

	tree := typeTree(t, methodsSource, "C")
	assert.Equal(t, "{ return 1; }", ScanMethod(&Method{Enclosing: "p.C", Name: "f"}, tree))
}

func TestScanMethod_OverloadsResolveToFirstDeclaration(t *testing.T) {
	t.Parallel()

	tree := typeTree(t, methodsSource, "C")

	// The element describes the second overload; name-only matching still
	// returns the first declaration.
	second := &Method{Enclosing: "p.C", Name: "over", Params: []Param{{Type: "int", Name: "i"}}}
	assert.Equal(t, "{ first(); }", ScanMethod(second, tree))
}

func TestScanMethod_Constructors(t *testing.T) {
	t.Parallel()

	tree := typeTree(t, methodsSource, "C")

	ctor := &Constructor{Enclosing: "p.C", Params: []Param{{Type: "int", Name: "n"}}}
	assert.Equal(t, "{ this(0); }", ScanMethod(ctor, tree))

	userMethod := &Method{Enclosing: "p.C", Name: "C"}
	assert.Equal(t, "{ userMethodNamedLikeClass(); }", ScanMethod(userMethod, tree))
}

func TestScanMethod_NoBody(t *testing.T) {
	t.Parallel()

	tree := typeTree(t, methodsSource, "C")
	assert.Equal(t, "", ScanMethod(&Method{Enclosing: "p.C", Name: "pending"}, tree))
	assert.Equal(t, "", ScanMethod(&Method{Enclosing: "p.C", Name: "missing"}, tree))
	assert.Equal(t, "", ScanMethod(&Class{QualifiedName: "p.C"}, tree))
}

func TestScanMethod_SkipsNestedAndAnonymousTypes(t *testing.T) {
	t.Parallel()

	tree := typeTree(t, methodsSource, "C")
	assert.Equal(t, "{ outer(); }", ScanMethod(&Method{Enclosing: "p.C", Name: "later"}, tree))
	assert.Equal(t, "", ScanMethod(&Method{Enclosing: "p.C", Name: "run"}, tree))

	inner := typeTree(t, methodsSource, "Inner")
	assert.Equal(t, "{ inner(); }", ScanMethod(&Method{Enclosing: "p.C.Inner", Name: "later"}, inner))
}

func TestScanMethod_SkipsEnumConstantBodies(t *testing.T) {
	t.Parallel()

	tree := typeTree(t, `package p;
enum Op {
    PLUS {
        int apply() { a(); }
    };

    abstract int apply();

    int arity() { return 2; }
}
`, "Op")
	assert.Equal(t, "", ScanMethod(&Method{Enclosing: "p.Op", Name: "apply"}, tree))
	assert.Equal(t, "{ return 2; }", ScanMethod(&Method{Enclosing: "p.Op", Name: "arity"}, tree))
}

func TestSource_DispatchesOnKind(t *testing.T) {
	t.Parallel()

	tree := typeTree(t, methodsSource, "C")
	assert.Equal(t, "{ return 1; }", Source(&Method{Enclosing: "p.C", Name: "f"}, tree))
	assert.Equal(t, "", Source(&Class{QualifiedName: "p.C"}, tree))
	assert.Equal(t, "counter", Source(&Other{Name: "counter", Decl: "field"}, tree))
}

func TestRecord_Format(t *testing.T) {
	t.Parallel()

	tree := typeTree(t, "package P;\nclass C {\n    int f() { return 1; }\n}\n", "C")

	class := NewRecord(&Class{QualifiedName: "P.C", Pos: Pos{File: "C.java", Line: 2}}, tree)
	assert.Equal(t, "// P.C\n\n\n", class.Format())
	assert.Equal(t, "C.java", class.File)

	method := NewRecord(&Method{Enclosing: "P.C", Name: "f"}, tree)
	assert.Equal(t, "// P.C#f()\n{ return 1; }\n\n", method.Format())
}
