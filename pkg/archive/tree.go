package archive

import (
	"sort"
	"strings"

	"github.com/konserve-app/konserve/pkg/types"
)

// Node is one node of the selection tree offered to the user when an archive
// is opened for restore. Internal nodes are directories, leaves are files.
// The tree is strictly parent-owned; there are no back-references.
type Node struct {
	Children map[string]*Node
	Checked  bool
	IsFile   bool
}

// NewNode returns an empty directory node.
func NewNode() *Node {
	return &Node{Children: map[string]*Node{}}
}

// BuildTree folds archive entry paths into a selection tree, creating
// intermediate directory nodes as needed. Every node starts checked, so the
// default is to offer the whole archive for restore. The fold is
// order-independent: the same entries always produce the same tree.
func BuildTree(entries []types.ArchiveEntry) *Node {
	root := NewNode()

	for _, entry := range entries {
		current := root
		for _, seg := range strings.Split(entry.Path, "/") {
			if seg == "" {
				continue
			}
			child, ok := current.Children[seg]
			if !ok {
				child = NewNode()
				current.Children[seg] = child
			}
			current = child
		}
		current.IsFile = !entry.IsDir()
	}

	root.CheckAll()

	return root
}

// CheckAll marks this node and every descendant as checked.
func (n *Node) CheckAll() {
	n.Checked = true
	for _, child := range n.Children {
		child.CheckAll()
	}
}

// SetChecked sets the checked flag on the node at the slash-separated path
// and all of its descendants. It reports whether the path exists in the tree.
// An empty path addresses the whole tree.
func (n *Node) SetChecked(path string, checked bool) bool {
	current := n
	if path != "" {
		for _, seg := range strings.Split(path, "/") {
			child, ok := current.Children[seg]
			if !ok {
				return false
			}
			current = child
		}
	}

	setRecursive(current, checked)

	return true
}

func setRecursive(n *Node, checked bool) {
	n.Checked = checked
	for _, child := range n.Children {
		setRecursive(child, checked)
	}
}

// CollectChecked flattens the tree into the sorted slash-separated paths of
// every checked node, files and directories alike. This is the selection the
// restorer filters entries against.
func (n *Node) CollectChecked() []string {
	var out []string
	collect(n, "", &out)
	sort.Strings(out)
	return out
}

func collect(n *Node, prefix string, out *[]string) {
	for name, child := range n.Children {
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		if child.Checked {
			*out = append(*out, path)
		}
		collect(child, path, out)
	}
}

// Selection is the set of tree paths chosen for restore.
type Selection map[string]struct{}

// NewSelection builds a Selection from slash-separated paths.
func NewSelection(paths []string) Selection {
	s := make(Selection, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Matches reports whether an entry at path should be restored: the path is
// itself selected, lies under a selected directory, or is an ancestor
// directory of something selected (so the directory chain above a selected
// file still gets created).
func (s Selection) Matches(path string) bool {
	// Exact match or descendant of a selected path.
	for i := len(path); i > 0; i = strings.LastIndex(path[:i], "/") {
		if _, ok := s[path[:i]]; ok {
			return true
		}
	}

	// Ancestor of a selected path.
	prefix := path + "/"
	for sel := range s {
		if strings.HasPrefix(sel, prefix) {
			return true
		}
	}

	return false
}
