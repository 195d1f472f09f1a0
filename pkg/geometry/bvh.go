package geometry

import (
	"sort"

	"github.com/luxera/luxcalc/pkg/core"
)

// DefaultOcclusionEpsilon shaves shadow-segment endpoints to avoid
// coplanar/grazing self-intersection false positives.
const DefaultOcclusionEpsilon = 1e-6

// Leaf threshold: nodes with this many or fewer primitives become leaves
// and use linear search.
const leafThreshold = 4

// Hit describes the nearest intersection found by BVH.Intersect.
type Hit struct {
	T        float64
	Point    core.Vec3
	Normal   core.Vec3
	Surface  *Surface
	Triangle *Triangle
}

// bvhNode is one arena slot. Nodes are addressed by index, not pointer, so
// the structure has no ownership cycles and is trivially safe for parallel
// reads. Left/right are -1 for leaves; leaves own the index range
// [start, start+count) of the builder's primitive permutation.
type bvhNode struct {
	bbox         core.AABB
	left, right  int32
	start, count int32
}

func (n *bvhNode) isLeaf() bool {
	return n.left < 0
}

// blas is a bottom-level hierarchy over one surface's triangles.
type blas struct {
	surface *Surface
	nodes   []bvhNode
	order   []int32 // triangle index permutation
}

// BVH is a two-level bounding volume hierarchy: one bottom-level structure
// per surface over its triangles, and a top-level structure over the
// per-surface bounding boxes. It is built once per job from a geometry
// snapshot and never mutated; geometry changes require a full rebuild.
// Concurrent queries are safe.
type BVH struct {
	surfaces []*Surface
	lower    []blas
	nodes    []bvhNode // top level
	order    []int32   // surface index permutation
	epsilon  float64
}

// NewBVH builds the two-level hierarchy over the given surfaces. epsilon
// controls shadow-segment endpoint shaving; values <= 0 select
// DefaultOcclusionEpsilon.
func NewBVH(surfaces []*Surface, epsilon float64) *BVH {
	if epsilon <= 0 {
		epsilon = DefaultOcclusionEpsilon
	}
	b := &BVH{
		surfaces: surfaces,
		lower:    make([]blas, len(surfaces)),
		epsilon:  epsilon,
	}

	surfaceBoxes := make([]core.AABB, len(surfaces))
	surfaceCentroids := make([]core.Vec3, len(surfaces))
	for i, s := range surfaces {
		b.lower[i] = buildBLAS(s)
		surfaceBoxes[i] = s.BoundingBox()
		surfaceCentroids[i] = s.BoundingBox().Center()
	}

	if len(surfaces) > 0 {
		builder := &arenaBuilder{boxes: surfaceBoxes, centroids: surfaceCentroids}
		items := identity(len(surfaces))
		builder.build(items)
		b.nodes = builder.nodes
		b.order = builder.order
	}
	return b
}

// Epsilon returns the configured endpoint epsilon.
func (b *BVH) Epsilon() float64 {
	return b.epsilon
}

func buildBLAS(s *Surface) blas {
	boxes := make([]core.AABB, len(s.Triangles))
	centroids := make([]core.Vec3, len(s.Triangles))
	for i, tri := range s.Triangles {
		boxes[i] = tri.BoundingBox()
		centroids[i] = tri.Centroid()
	}
	builder := &arenaBuilder{boxes: boxes, centroids: centroids}
	builder.build(identity(len(s.Triangles)))
	return blas{surface: s, nodes: builder.nodes, order: builder.order}
}

// arenaBuilder accumulates nodes into a contiguous arena. build returns the
// index of the subtree root it creates.
type arenaBuilder struct {
	nodes     []bvhNode
	order     []int32
	boxes     []core.AABB
	centroids []core.Vec3
}

func identity(n int) []int32 {
	items := make([]int32, n)
	for i := range items {
		items[i] = int32(i)
	}
	return items
}

func (b *arenaBuilder) build(items []int32) int32 {
	bbox := b.boxes[items[0]]
	for _, idx := range items[1:] {
		bbox = bbox.Union(b.boxes[idx])
	}

	if len(items) <= leafThreshold {
		nodeIdx := int32(len(b.nodes))
		b.nodes = append(b.nodes, bvhNode{
			bbox:  bbox,
			left:  -1,
			right: -1,
			start: int32(len(b.order)),
			count: int32(len(items)),
		})
		b.order = append(b.order, items...)
		return nodeIdx
	}

	// Median split along the longest axis of the node bounds.
	axis := bbox.LongestAxis()
	sort.Slice(items, func(i, j int) bool {
		return b.centroids[items[i]].Component(axis) < b.centroids[items[j]].Component(axis)
	})
	mid := len(items) / 2

	// Reserve this node's slot before recursing so children land after it.
	nodeIdx := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{bbox: bbox})
	left := b.build(items[:mid])
	right := b.build(items[mid:])
	b.nodes[nodeIdx].left = left
	b.nodes[nodeIdx].right = right
	return nodeIdx
}

// Intersect returns the nearest triangle hit along the ray, or false when
// nothing is hit.
func (b *BVH) Intersect(ray core.Ray) (Hit, bool) {
	return b.IntersectRange(ray, b.epsilon, 1e30)
}

// IntersectRange restricts the nearest-hit search to [tMin, tMax].
func (b *BVH) IntersectRange(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	if len(b.nodes) == 0 {
		return Hit{}, false
	}
	hit := Hit{T: tMax}
	found := b.intersectTop(0, ray, tMin, &hit)
	if !found {
		return Hit{}, false
	}
	hit.Point = ray.At(hit.T)
	hit.Normal = hit.Triangle.Normal()
	return hit, true
}

func (b *BVH) intersectTop(nodeIdx int32, ray core.Ray, tMin float64, best *Hit) bool {
	node := &b.nodes[nodeIdx]
	if !node.bbox.Hit(ray, tMin, best.T) {
		return false
	}
	if node.isLeaf() {
		found := false
		for _, surfIdx := range b.order[node.start : node.start+node.count] {
			if b.intersectLower(&b.lower[surfIdx], ray, tMin, best) {
				found = true
			}
		}
		return found
	}
	foundLeft := b.intersectTop(node.left, ray, tMin, best)
	foundRight := b.intersectTop(node.right, ray, tMin, best)
	return foundLeft || foundRight
}

func (b *BVH) intersectLower(l *blas, ray core.Ray, tMin float64, best *Hit) bool {
	return b.intersectLowerNode(l, 0, ray, tMin, best)
}

func (b *BVH) intersectLowerNode(l *blas, nodeIdx int32, ray core.Ray, tMin float64, best *Hit) bool {
	node := &l.nodes[nodeIdx]
	if !node.bbox.Hit(ray, tMin, best.T) {
		return false
	}
	if node.isLeaf() {
		found := false
		for _, triIdx := range l.order[node.start : node.start+node.count] {
			tri := l.surface.Triangles[triIdx]
			if t, ok := tri.Hit(ray, tMin, best.T); ok {
				best.T = t
				best.Surface = l.surface
				best.Triangle = tri
				found = true
			}
		}
		return found
	}
	foundLeft := b.intersectLowerNode(l, node.left, ray, tMin, best)
	foundRight := b.intersectLowerNode(l, node.right, ray, tMin, best)
	return foundLeft || foundRight
}

// Occluded reports whether any geometry blocks the open segment between from
// and to. Both endpoints are shaved by the configured epsilon so surfaces
// touching either endpoint do not occlude themselves. This is the any-hit
// shadow test: it stops at the first intersection found.
func (b *BVH) Occluded(from, to core.Vec3) bool {
	if len(b.nodes) == 0 {
		return false
	}
	delta := to.Subtract(from)
	dist := delta.Length()
	if dist <= 2*b.epsilon {
		return false
	}
	ray := core.NewRay(from, delta.Multiply(1.0/dist))
	return b.anyHitTop(0, ray, b.epsilon, dist-b.epsilon)
}

func (b *BVH) anyHitTop(nodeIdx int32, ray core.Ray, tMin, tMax float64) bool {
	node := &b.nodes[nodeIdx]
	if !node.bbox.Hit(ray, tMin, tMax) {
		return false
	}
	if node.isLeaf() {
		for _, surfIdx := range b.order[node.start : node.start+node.count] {
			if b.anyHitLower(&b.lower[surfIdx], 0, ray, tMin, tMax) {
				return true
			}
		}
		return false
	}
	return b.anyHitTop(node.left, ray, tMin, tMax) || b.anyHitTop(node.right, ray, tMin, tMax)
}

func (b *BVH) anyHitLower(l *blas, nodeIdx int32, ray core.Ray, tMin, tMax float64) bool {
	node := &l.nodes[nodeIdx]
	if !node.bbox.Hit(ray, tMin, tMax) {
		return false
	}
	if node.isLeaf() {
		for _, triIdx := range l.order[node.start : node.start+node.count] {
			if _, ok := l.surface.Triangles[triIdx].Hit(ray, tMin, tMax); ok {
				return true
			}
		}
		return false
	}
	return b.anyHitLower(l, node.left, ray, tMin, tMax) || b.anyHitLower(l, node.right, ray, tMin, tMax)
}

// bvhStats summarizes an arena for tests and diagnostics.
type bvhStats struct {
	totalNodes int
	leafNodes  int
	maxDepth   int
	totalItems int
}

func collectStats(nodes []bvhNode, nodeIdx int32, depth int, stats *bvhStats) {
	if len(nodes) == 0 {
		return
	}
	node := &nodes[nodeIdx]
	stats.totalNodes++
	if depth > stats.maxDepth {
		stats.maxDepth = depth
	}
	if node.isLeaf() {
		stats.leafNodes++
		stats.totalItems += int(node.count)
		return
	}
	collectStats(nodes, node.left, depth+1, stats)
	collectStats(nodes, node.right, depth+1, stats)
}

// checkEnclosure verifies that every node's box contains its children's
// boxes (and, at leaves, its primitives' boxes). Used by tests.
func checkEnclosure(nodes []bvhNode, nodeIdx int32, boxes []core.AABB, order []int32) bool {
	node := &nodes[nodeIdx]
	if node.isLeaf() {
		for _, idx := range order[node.start : node.start+node.count] {
			if !node.bbox.Contains(boxes[idx]) {
				return false
			}
		}
		return true
	}
	if !node.bbox.Contains(nodes[node.left].bbox) || !node.bbox.Contains(nodes[node.right].bbox) {
		return false
	}
	return checkEnclosure(nodes, node.left, boxes, order) && checkEnclosure(nodes, node.right, boxes, order)
}
