package core

// Scene is the top-level container. The model and the particle field are
// both owned exclusively by it.
type Scene struct {
	Root        *Node
	Light       *DirectionalLight
	Environment *Environment
	Exposure    float32
}

func NewScene() *Scene {
	return &Scene{
		Root:     NewNode("scene"),
		Exposure: 1.0,
	}
}

func (s *Scene) Add(n *Node) { s.Root.Add(n) }

func (s *Scene) Remove(n *Node) { s.Root.Remove(n) }

// Empty reports whether the scene has no drawable nodes.
func (s *Scene) Empty() bool {
	empty := true
	s.Root.Traverse(func(n *Node) bool {
		if n.Geometry != nil {
			empty = false
			return false
		}
		return true
	})
	return empty
}

// SetEnvironment swaps the reflection map. The previous map is released and
// every reflective material is tagged for re-upload.
func (s *Scene) SetEnvironment(env *Environment) {
	if s.Environment == env {
		return
	}
	if s.Environment != nil {
		s.Environment.Dispose()
	}
	s.Environment = env
	s.Root.Traverse(func(n *Node) bool {
		if n.Material != nil && n.Material.Reflective {
			n.Material.MarkDirty()
		}
		return true
	})
}

// Dispose releases every GPU-backed resource reachable from the scene.
func (s *Scene) Dispose() {
	s.Root.Dispose()
	if s.Environment != nil {
		s.Environment.Dispose()
	}
}
