// Package model loads the optional 3D asset drawn behind the clock. Any
// failure yields no model; callers skip the layer.
package model

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var (
	// ErrNotFound means no candidate path exists.
	ErrNotFound = errors.New("model: not found")
	// ErrNoGeometry means the file parsed but carried no usable triangles.
	ErrNoGeometry = errors.New("model: no geometry")
)

// DefaultNames are tried, in order, when no explicit model path is configured.
var DefaultNames = []string{"shuttle", "model", "scene"}

// DefaultExtensions are the formats the loader understands, binary first.
var DefaultExtensions = []string{".glb", ".gltf"}

const maxEdges = 1800

// Mesh is a wireframe centred on the origin and scaled to unit radius.
type Mesh struct {
	Name     string
	Vertices [][3]float64
	Edges    [][2]int
}

// Candidates expands names and extensions into a prioritized path list under dir.
// Names that already carry an extension are kept as is.
func Candidates(dir string, names, exts []string) []string {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	var out []string
	for _, name := range names {
		if name == "" {
			continue
		}
		if filepath.Ext(name) != "" {
			out = append(out, filepath.Join(dir, name))
			continue
		}
		for _, ext := range exts {
			out = append(out, filepath.Join(dir, name+ext))
		}
	}
	return out
}

// LoadFirst returns the first candidate that loads, or nil. Missing and
// unparseable files are treated alike and only logged.
func LoadFirst(candidates []string, logger *log.Logger) *Mesh {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	for _, path := range candidates {
		mesh, err := Load(path)
		if err == nil {
			logger.Printf("model loaded from %s (%d vertices, %d edges)", path, len(mesh.Vertices), len(mesh.Edges))
			return mesh
		}
		if !errors.Is(err, ErrNotFound) {
			logger.Printf("model %s skipped: %v", path, err)
		}
	}
	logger.Printf("no model asset available; model layer disabled")
	return nil
}

// Load reads a glTF/GLB file into a wireframe mesh.
func Load(path string) (*Mesh, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var (
		positions [][3]float32
		indices   []uint32
	)
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok || !isTriangleMode(prim.Mode) {
				continue
			}
			pos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("read positions in %s: %w", path, err)
			}

			var idx []uint32
			if prim.Indices != nil {
				idx, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
				if err != nil {
					return nil, fmt.Errorf("read indices in %s: %w", path, err)
				}
			} else {
				idx = make([]uint32, len(pos))
				for i := range idx {
					idx[i] = uint32(i)
				}
			}

			base := uint32(len(positions))
			positions = append(positions, pos...)
			for _, i := range triangleList(prim.Mode, idx) {
				indices = append(indices, base+i)
			}
		}
	}

	mesh, err := FromTriangles(positions, indices)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	mesh.Name = filepath.Base(path)
	return mesh, nil
}

func isTriangleMode(mode gltf.PrimitiveMode) bool {
	switch mode {
	case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
		return true
	}
	return false
}

// triangleList expands strip and fan indices into a plain triangle list.
// Point and line primitives yield nothing.
func triangleList(mode gltf.PrimitiveMode, idx []uint32) []uint32 {
	switch mode {
	case gltf.PrimitiveTriangles:
		return idx
	case gltf.PrimitiveTriangleStrip:
		out := make([]uint32, 0, 3*max(0, len(idx)-2))
		for i := 0; i+2 < len(idx); i++ {
			if i%2 == 0 {
				out = append(out, idx[i], idx[i+1], idx[i+2])
			} else {
				out = append(out, idx[i+1], idx[i], idx[i+2])
			}
		}
		return out
	case gltf.PrimitiveTriangleFan:
		out := make([]uint32, 0, 3*max(0, len(idx)-2))
		for i := 1; i+1 < len(idx); i++ {
			out = append(out, idx[0], idx[i], idx[i+1])
		}
		return out
	}
	return nil
}

// FromTriangles builds a normalized wireframe from an indexed triangle list.
// Edges shared by adjacent triangles are emitted once; very dense meshes are
// thinned to a fixed edge budget.
func FromTriangles(positions [][3]float32, indices []uint32) (*Mesh, error) {
	if len(positions) == 0 || len(indices) < 3 {
		return nil, ErrNoGeometry
	}

	seen := make(map[[2]int]struct{}, len(indices))
	var edges [][2]int
	addEdge := func(a, b uint32) {
		if int(a) >= len(positions) || int(b) >= len(positions) || a == b {
			return
		}
		e := [2]int{int(a), int(b)}
		if e[0] > e[1] {
			e[0], e[1] = e[1], e[0]
		}
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		edges = append(edges, e)
	}
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		addEdge(a, b)
		addEdge(b, c)
		addEdge(c, a)
	}
	if len(edges) == 0 {
		return nil, ErrNoGeometry
	}
	if len(edges) > maxEdges {
		stride := float64(len(edges)) / maxEdges
		thinned := make([][2]int, 0, maxEdges)
		for i := 0; i < maxEdges; i++ {
			thinned = append(thinned, edges[int(float64(i)*stride)])
		}
		edges = thinned
	}

	var minP, maxP [3]float64
	for i := range minP {
		minP[i], maxP[i] = math.Inf(1), math.Inf(-1)
	}
	for _, p := range positions {
		for k := 0; k < 3; k++ {
			minP[k] = math.Min(minP[k], float64(p[k]))
			maxP[k] = math.Max(maxP[k], float64(p[k]))
		}
	}
	var center [3]float64
	for k := range center {
		center[k] = (minP[k] + maxP[k]) / 2
	}

	vertices := make([][3]float64, len(positions))
	radius := 0.0
	for i, p := range positions {
		v := [3]float64{float64(p[0]) - center[0], float64(p[1]) - center[1], float64(p[2]) - center[2]}
		vertices[i] = v
		radius = math.Max(radius, math.Sqrt(v[0]*v[0]+v[1]*v[1]+v[2]*v[2]))
	}
	if radius > 0 {
		for i := range vertices {
			for k := 0; k < 3; k++ {
				vertices[i][k] /= radius
			}
		}
	}

	return &Mesh{Vertices: vertices, Edges: edges}, nil
}
