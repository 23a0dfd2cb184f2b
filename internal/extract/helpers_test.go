package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// parseJava parses src and registers the tree for cleanup.
func parseJava(t *testing.T, src string) (*sitter.Tree, []byte) {
	t.Helper()

	source := []byte(src)
	parser := sitter.NewParser()
	defer parser.Close()
	require.NoError(t, parser.SetLanguage(sitter.NewLanguage(java.Language())))

	tree := parser.Parse(source, nil)
	require.NotNil(t, tree)
	t.Cleanup(tree.Close)

	return tree, source
}

// typeTree returns the subtree of the first type declaration named name.
func typeTree(t *testing.T, src, name string) SyntaxTree {
	t.Helper()

	tree, source := parseJava(t, src)
	st := SyntaxTree{Source: source}

	var found *sitter.Node
	walkTree(tree.RootNode(), func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if isTypeDeclaration(n.Kind()) && st.Text(n.ChildByFieldName("name")) == name {
			found = n
			return false
		}
		return true
	})
	require.NotNil(t, found, "type %s not found", name)

	st.Root = found
	return st
}
