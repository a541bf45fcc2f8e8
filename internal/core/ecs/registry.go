package ecs

// Registry tracks all component stores and destroy hooks.
type Registry struct {
	stores []Detacher
	hooks  []func(EntityID)
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Detacher, 0, 8),
	}
}

// Register adds a component store to the registry.
func (r *Registry) Register(store Detacher) {
	r.stores = append(r.stores, store)
}

// OnDestroy registers fn to run once for every destroyed entity, before its
// components are removed.
func (r *Registry) OnDestroy(fn func(EntityID)) {
	r.hooks = append(r.hooks, fn)
}

// RemoveAll runs destroy hooks and clears the entity from every store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, h := range r.hooks {
		h(id)
	}
	for _, s := range r.stores {
		s.Detach(id)
	}
}
