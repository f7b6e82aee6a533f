package model

// Cluster is a composite of modules and nested clusters. It carries its own
// translation anchor and an aggregate rotation flag. All geometry is derived
// from the current footprints of the contained modules on every call,
// because those move independently of the anchor.
type Cluster struct {
	layout   *Layout
	index    int
	children []NodeID
	position Point
	rotated  bool
}

// Index returns the cluster's position in its layout arena.
func (c *Cluster) Index() int { return c.index }

func (c *Cluster) ID() NodeID { return ClusterNode(c.index) }

// SubModules returns the direct children, one level deep.
func (c *Cluster) SubModules() []NodeID { return c.children }

// Children resolves the direct children to shapes, skipping dangling ids.
func (c *Cluster) Children() []Shape {
	shapes := make([]Shape, 0, len(c.children))
	for _, id := range c.children {
		if s := c.layout.Node(id); s != nil {
			shapes = append(shapes, s)
		}
	}
	return shapes
}

// Add appends a child reference.
func (c *Cluster) Add(id NodeID) { c.children = append(c.children, id) }

func (c *Cluster) Len() int { return len(c.children) }

// CollectLeaves flattens the subtree into its modules. Each module appears
// once even if reachable along several paths, and cycles are cut.
func (c *Cluster) CollectLeaves() []*Module {
	var out []*Module
	seenModules := make([]bool, len(c.layout.Modules))
	seenClusters := make([]bool, len(c.layout.clusters))
	c.collectLeaves(&out, seenModules, seenClusters)
	return out
}

func (c *Cluster) collectLeaves(out *[]*Module, seenModules, seenClusters []bool) {
	if seenClusters[c.index] {
		return
	}
	seenClusters[c.index] = true

	for _, id := range c.children {
		switch id.Kind {
		case KindModule:
			if id.Index < 0 || id.Index >= len(seenModules) || seenModules[id.Index] {
				continue
			}
			seenModules[id.Index] = true
			*out = append(*out, &c.layout.Modules[id.Index])
		case KindCluster:
			if sub := c.layout.Cluster(id.Index); sub != nil {
				sub.collectLeaves(out, seenModules, seenClusters)
			}
		}
	}
}

// CollectClusters enumerates nested clusters, optionally including c.
// Deduplicated and cycle safe.
func (c *Cluster) CollectClusters(includeSelf bool) []*Cluster {
	var out []*Cluster
	seen := make([]bool, len(c.layout.clusters))
	seen[c.index] = true
	if includeSelf {
		out = append(out, c)
	}
	c.collectClusters(&out, seen)
	return out
}

func (c *Cluster) collectClusters(out *[]*Cluster, seen []bool) {
	for _, id := range c.children {
		if id.Kind != KindCluster {
			continue
		}
		sub := c.layout.Cluster(id.Index)
		if sub == nil || seen[sub.index] {
			continue
		}
		seen[sub.index] = true
		*out = append(*out, sub)
		sub.collectClusters(out, seen)
	}
}

func (c *Cluster) Position() Point { return c.position }

// SetPosition translates every contained module by p minus the current
// anchor, shifts nested anchors by the same delta and moves the anchor to p.
func (c *Cluster) SetPosition(p Point) {
	delta := p.Sub(c.position)
	for _, m := range c.CollectLeaves() {
		m.SetPosition(m.Position().Add(delta))
	}
	for _, sub := range c.CollectClusters(false) {
		sub.position = sub.position.Add(delta)
	}
	c.position = p
}

func (c *Cluster) IsRotated() bool { return c.rotated }

// Rotate turns the whole aggregate 90 degrees counter-clockwise about the
// center of its bounding box. Every module is handled once from the flat
// leaf set; nested clusters only have their flags toggled.
func (c *Cluster) Rotate() {
	center := c.Center()
	for _, m := range c.CollectLeaves() {
		offset := m.Center().Sub(center).Rotate90()
		newCenter := center.Add(offset)
		m.Rotate()
		m.SetPosition(Point{
			X: newCenter.X - m.RotatedWidth()/2,
			Y: newCenter.Y - m.RotatedHeight()/2,
		})
	}
	for _, sub := range c.CollectClusters(true) {
		sub.rotated = !sub.rotated
	}
}

func (c *Cluster) SetRotate(r bool) {
	if r != c.rotated {
		c.Rotate()
	}
}

// Bounds returns the bounding box of all contained modules. An empty
// cluster collapses to its anchor.
func (c *Cluster) Bounds() Rect {
	leaves := c.CollectLeaves()
	if len(leaves) == 0 {
		return Rect{Min: c.position, Max: c.position}
	}
	r := leaves[0].Bounds()
	for _, m := range leaves[1:] {
		r = r.Union(m.Bounds())
	}
	return r
}

func (c *Cluster) RotatedWidth() float64  { return c.Bounds().Width() }
func (c *Cluster) RotatedHeight() float64 { return c.Bounds().Height() }

func (c *Cluster) OrgWidth() float64 {
	if c.rotated {
		return c.RotatedHeight()
	}
	return c.RotatedWidth()
}

func (c *Cluster) OrgHeight() float64 {
	if c.rotated {
		return c.RotatedWidth()
	}
	return c.RotatedHeight()
}

func (c *Cluster) Center() Point {
	if len(c.CollectLeaves()) == 0 {
		return c.position
	}
	return c.Bounds().Center()
}

func (c *Cluster) AsCluster() (*Cluster, bool) { return c, true }
