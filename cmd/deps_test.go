package cmd

import (
	"testing"

	"github.com/pqhub/pqhub-cli/internal/resolve"
)

func TestRenderTree(t *testing.T) {
	root := &resolve.TreeNode{
		Name: "Final",
		Children: []*resolve.TreeNode{
			{Name: "Base", Children: []*resolve.TreeNode{{Name: "fn_Clean"}}},
			{Name: "Ghost", Unresolved: true},
			{Name: "Base", Repeated: true},
		},
	}

	got := renderTree(root)
	want := "Final\n" +
		"├── Base\n" +
		"│   └── fn_Clean\n" +
		"├── Ghost (missing)\n" +
		"└── Base (repeat)\n"
	if got != want {
		t.Errorf("tree rendering:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTreeLeafOnly(t *testing.T) {
	got := renderTree(&resolve.TreeNode{Name: "Solo"})
	if got != "Solo\n" {
		t.Errorf("got %q, want %q", got, "Solo\n")
	}
}

func TestRenderTreeNestedPrefix(t *testing.T) {
	// A non-last child with its own children keeps the │ rail.
	root := &resolve.TreeNode{
		Name: "Top",
		Children: []*resolve.TreeNode{
			{Name: "A", Children: []*resolve.TreeNode{{Name: "A1"}, {Name: "A2"}}},
			{Name: "B"},
		},
	}

	got := renderTree(root)
	want := "Top\n" +
		"├── A\n" +
		"│   ├── A1\n" +
		"│   └── A2\n" +
		"└── B\n"
	if got != want {
		t.Errorf("tree rendering:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
