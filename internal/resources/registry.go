package resources

// Registry holds live resources that have not yet been handed to an agent.
// Iteration follows registration order so assignment scans are reproducible.
type Registry struct {
	order []*Resource
	index map[ID]*Resource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[ID]*Resource)}
}

// Register adds r unless a resource with the same ID is already present.
// Returns true if r was added.
func (g *Registry) Register(r *Resource) bool {
	if r == nil {
		return false
	}
	if _, ok := g.index[r.ID]; ok {
		return false
	}
	g.index[r.ID] = r
	g.order = append(g.order, r)
	return true
}

// Get returns the resource with the given ID, or nil.
func (g *Registry) Get(id ID) *Resource {
	return g.index[id]
}

// Remove drops a resource from the registry. Returns false if it was absent.
func (g *Registry) Remove(id ID) bool {
	if _, ok := g.index[id]; !ok {
		return false
	}
	delete(g.index, id)
	for i, r := range g.order {
		if r.ID == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return true
}

// Unclaimed returns uncollected, unreserved resources in registration order.
func (g *Registry) Unclaimed() []*Resource {
	out := make([]*Resource, 0, len(g.order))
	for _, r := range g.order {
		if r.Available() {
			out = append(out, r)
		}
	}
	return out
}

// All returns every registered resource in registration order.
func (g *Registry) All() []*Resource {
	out := make([]*Resource, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of registered resources.
func (g *Registry) Len() int {
	return len(g.order)
}
