package model

// NodeKind tags a NodeID as a leaf module or a composite cluster.
type NodeKind uint8

const (
	KindModule NodeKind = iota
	KindCluster
)

func (k NodeKind) String() string {
	if k == KindCluster {
		return "cluster"
	}
	return "module"
}

// NodeID addresses a module or a cluster inside a Layout by stable index.
type NodeID struct {
	Kind  NodeKind
	Index int
}

func ModuleNode(i int) NodeID  { return NodeID{Kind: KindModule, Index: i} }
func ClusterNode(i int) NodeID { return NodeID{Kind: KindCluster, Index: i} }

// Layout is the arena that owns every module for the whole run and every
// cluster built during the current placement pass. Clusters reference their
// children by NodeID and never own them.
type Layout struct {
	Modules []Module

	clusters []*Cluster
}

// NewLayout takes ownership of modules.
func NewLayout(modules []Module) *Layout {
	return &Layout{Modules: modules}
}

// AddModule appends a module and returns its index. Modules must be added
// before clusters referencing them are built.
func (l *Layout) AddModule(id int, w, h float64) int {
	l.Modules = append(l.Modules, NewModule(id, w, h))
	return len(l.Modules) - 1
}

func (l *Layout) Len() int { return len(l.Modules) }

// Module returns the module at index i.
func (l *Layout) Module(i int) *Module { return &l.Modules[i] }

// Cluster returns the cluster at index i, or nil when i is out of range.
func (l *Layout) Cluster(i int) *Cluster {
	if i < 0 || i >= len(l.clusters) {
		return nil
	}
	return l.clusters[i]
}

func (l *Layout) NumClusters() int { return len(l.clusters) }

// Node resolves id to its Shape, or nil when id does not exist.
func (l *Layout) Node(id NodeID) Shape {
	switch id.Kind {
	case KindModule:
		if id.Index < 0 || id.Index >= len(l.Modules) {
			return nil
		}
		return &l.Modules[id.Index]
	case KindCluster:
		if c := l.Cluster(id.Index); c != nil {
			return c
		}
	}
	return nil
}

// NewCluster registers a cluster over the given children.
func (l *Layout) NewCluster(children ...NodeID) *Cluster {
	c := &Cluster{
		layout:   l,
		index:    len(l.clusters),
		children: append([]NodeID(nil), children...),
	}
	l.clusters = append(l.clusters, c)
	return c
}

// ClusterOf builds a cluster over the modules at the given indices.
func (l *Layout) ClusterOf(indices ...int) *Cluster {
	ids := make([]NodeID, len(indices))
	for i, idx := range indices {
		ids[i] = ModuleNode(idx)
	}
	return l.NewCluster(ids...)
}

// WrapModules builds a top-level cluster referencing every module.
func (l *Layout) WrapModules() *Cluster {
	ids := make([]NodeID, len(l.Modules))
	for i := range l.Modules {
		ids[i] = ModuleNode(i)
	}
	return l.NewCluster(ids...)
}

// ResetClusters drops every cluster. Clusters never outlive a pass.
func (l *Layout) ResetClusters() {
	l.clusters = nil
}

// Shapes returns every module as a Shape, in input order.
func (l *Layout) Shapes() []Shape {
	shapes := make([]Shape, len(l.Modules))
	for i := range l.Modules {
		shapes[i] = &l.Modules[i]
	}
	return shapes
}

// Bounds returns the bounding box of all module footprints.
func (l *Layout) Bounds() Rect {
	return BoundsOf(l.Shapes())
}

// ModuleArea returns the summed area of all modules.
func (l *Layout) ModuleArea() float64 {
	var total float64
	for i := range l.Modules {
		total += l.Modules[i].Area()
	}
	return total
}

// ResetPlacement moves every module back to the origin, unrotated.
func (l *Layout) ResetPlacement() {
	for i := range l.Modules {
		l.Modules[i].SetPosition(Point{})
		l.Modules[i].SetRotate(false)
	}
}

// ModuleState is the mutable part of a module.
type ModuleState struct {
	Position Point `json:"position"`
	Rotated  bool  `json:"rotated"`
}

// Snapshot captures the placement of every module.
func (l *Layout) Snapshot() []ModuleState {
	states := make([]ModuleState, len(l.Modules))
	for i := range l.Modules {
		states[i] = ModuleState{Position: l.Modules[i].position, Rotated: l.Modules[i].rotated}
	}
	return states
}

// Restore applies a snapshot taken with Snapshot. Extra or missing entries
// are ignored.
func (l *Layout) Restore(states []ModuleState) {
	for i := range l.Modules {
		if i >= len(states) {
			return
		}
		l.Modules[i].position = states[i].Position
		l.Modules[i].rotated = states[i].Rotated
	}
}
