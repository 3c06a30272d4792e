// Package distcache implements a precomputed geodesic distance cache.
//
// A Cache maps (scene, grid cell, target) triples to the geodesic
// distance from the cell to the target. Targets are identified by
// robothor.Target.Key: the object type for object goals, and the
// formatted coordinates for point goals. Caches are computed offline
// with Build and persisted to SQLite or to zstd-compressed JSON lines.
//
// A Cache is read-only during training and may be read concurrently,
// but must not be modified while it is being read.
package distcache

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/samuelfneumann/navlearn/environment/robothor"
)

// ErrNotFound is returned when a cache holds no distance for a query
var ErrNotFound = errors.New("distcache: distance not found")

// Entry is a single cached distance. X and Z index the grid cell of
// the position, which is centred at (X * gridSize, Z * gridSize).
type Entry struct {
	Scene    string  `json:"scene"`
	X        int     `json:"x"`
	Z        int     `json:"z"`
	Target   string  `json:"target"`
	Distance float64 `json:"distance"`
}

type cell struct {
	x, z int
}

type sceneCache struct {
	distances map[cell]map[string]float64

	// cells holds the cells of distances in insertion order, so that
	// nearest neighbour ties are broken deterministically
	cells []cell
}

// Cache is a geodesic distance cache
type Cache struct {
	gridSize float64
	scenes   map[string]*sceneCache
	size     int
}

// New returns a new, empty Cache of positions snapped to a grid with
// the argument cell size
func New(gridSize float64) *Cache {
	if gridSize <= 0 {
		panic(fmt.Sprintf("new: grid size must be positive, got %v",
			gridSize))
	}
	return &Cache{
		gridSize: gridSize,
		scenes:   make(map[string]*sceneCache),
	}
}

// GridSize returns the size of the grid cells of the cache
func (c *Cache) GridSize() float64 {
	return c.gridSize
}

// Len returns the number of cached distances
func (c *Cache) Len() int {
	return c.size
}

// Add caches the distance from position to a target
func (c *Cache) Add(scene string, position robothor.Vector3, target string,
	distance float64) {
	x, z := c.snap(position)
	c.AddEntry(Entry{Scene: scene, X: x, Z: z, Target: target,
		Distance: distance})
}

// AddEntry caches an entry, replacing any entry for the same scene,
// cell, and target
func (c *Cache) AddEntry(e Entry) {
	s, ok := c.scenes[e.Scene]
	if !ok {
		s = &sceneCache{distances: make(map[cell]map[string]float64)}
		c.scenes[e.Scene] = s
	}

	at := cell{e.X, e.Z}
	targets, ok := s.distances[at]
	if !ok {
		targets = make(map[string]float64)
		s.distances[at] = targets
		s.cells = append(s.cells, at)
	}
	if _, ok := targets[e.Target]; !ok {
		c.size++
	}
	targets[e.Target] = e.Distance
}

// Entries returns all cached distances, ordered by scene, insertion
// order of cells, and target
func (c *Cache) Entries() []Entry {
	scenes := make([]string, 0, len(c.scenes))
	for name := range c.scenes {
		scenes = append(scenes, name)
	}
	sort.Strings(scenes)

	entries := make([]Entry, 0, c.size)
	for _, name := range scenes {
		s := c.scenes[name]
		for _, at := range s.cells {
			targets := make([]string, 0, len(s.distances[at]))
			for t := range s.distances[at] {
				targets = append(targets, t)
			}
			sort.Strings(targets)

			for _, t := range targets {
				entries = append(entries, Entry{Scene: name, X: at.x, Z: at.z,
					Target: t, Distance: s.distances[at][t]})
			}
		}
	}
	return entries
}

// Lookup returns the cached distance from the pose to the target. If
// the pose's cell holds no distance to the target, the distance of the
// nearest cell of the scene which does is returned.
func (c *Cache) Lookup(scene string, pose robothor.Pose, target string) (
	float64, error) {
	s, ok := c.scenes[scene]
	if !ok {
		return 0, fmt.Errorf("lookup: scene %v: %w", scene, ErrNotFound)
	}

	x, z := c.snap(pose.Position())
	if d, ok := s.distances[cell{x, z}][target]; ok {
		return d, nil
	}

	best, bestDist := math.Inf(1), math.Inf(1)
	for _, at := range s.cells {
		d, ok := s.distances[at][target]
		if !ok {
			continue
		}
		dx, dz := float64(at.x-x), float64(at.z-z)
		if sq := dx*dx + dz*dz; sq < bestDist {
			best, bestDist = d, sq
		}
	}
	if math.IsInf(bestDist, 1) {
		return 0, fmt.Errorf("lookup: target %v in scene %v: %w", target,
			scene, ErrNotFound)
	}
	return best, nil
}

// Distance returns the cached distance from the pose to a point
func (c *Cache) Distance(scene string, pose robothor.Pose,
	target robothor.Vector3) (float64, bool) {
	d, err := c.Lookup(scene, pose, robothor.PointTarget(target).Key())
	return d, err == nil
}

// DistanceToObject returns the cached distance from the pose to the
// closest object of a type
func (c *Cache) DistanceToObject(scene string, pose robothor.Pose,
	objectType string) (float64, bool) {
	d, err := c.Lookup(scene, pose, objectType)
	return d, err == nil
}

// subset returns a cache holding only the entries of the argument
// scenes
func (c *Cache) subset(scenes []string) *Cache {
	keep := make(map[string]bool, len(scenes))
	for _, s := range scenes {
		keep[s] = true
	}

	sub := New(c.gridSize)
	for _, e := range c.Entries() {
		if keep[e.Scene] {
			sub.AddEntry(e)
		}
	}
	return sub
}

func (c *Cache) snap(p robothor.Vector3) (x, z int) {
	return int(math.RoundToEven(p.X / c.gridSize)),
		int(math.RoundToEven(p.Z / c.gridSize))
}
