package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Node is a scene graph object. A node owns its geometry and material; both
// are disposed together with the node.
type Node struct {
	Name      string
	Transform Transform
	Geometry  Geometry
	Material  *Material
	Visible   bool

	parent   *Node
	children []*Node
}

func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: NewTransform(),
		Visible:   true,
	}
}

func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return n.children }

// Add re-parents child under n.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

func (n *Node) Remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Traverse visits n and its descendants depth-first. Returning false from fn
// skips the subtree.
func (n *Node) Traverse(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Transform.ObjectToWorld()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Transform.ObjectToWorld().Mul4(m)
	}
	return m
}

// Meshes returns every node in the subtree carrying a Mesh.
func (n *Node) Meshes() []*Node {
	var out []*Node
	n.Traverse(func(c *Node) bool {
		if _, ok := c.Geometry.(*Mesh); ok {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Dispose releases geometry and materials of the whole subtree.
func (n *Node) Dispose() {
	n.Traverse(func(c *Node) bool {
		if c.Geometry != nil {
			c.Geometry.Dispose()
		}
		if c.Material != nil {
			if c.Material.Map != nil {
				c.Material.Map.Dispose()
			}
			c.Material.Dispose()
		}
		return true
	})
}
