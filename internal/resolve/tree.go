package resolve

// TreeNode is one node of an expanded dependency tree.
type TreeNode struct {
	Name       string
	Unresolved bool // no record provides this name
	Repeated   bool // subtree pruned here, expanded in full elsewhere
	Children   []*TreeNode
}

// Tree expands the dependency tree under root. A script expanded once
// is not expanded again: later occurrences become Repeated leaves,
// which keeps shared subtrees compact and makes cycles safe to walk.
func (g *Graph) Tree(root string) *TreeNode {
	expanded := make(map[string]bool)

	var build func(name string) *TreeNode
	build = func(name string) *TreeNode {
		n, ok := g.nodes[name]
		if !ok {
			return &TreeNode{Name: name, Unresolved: true}
		}
		if expanded[name] {
			return &TreeNode{Name: name, Repeated: len(n.deps) > 0}
		}
		expanded[name] = true
		t := &TreeNode{Name: name}
		for _, dep := range n.deps {
			t.Children = append(t.Children, build(dep))
		}
		return t
	}
	return build(root)
}
