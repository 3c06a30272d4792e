package gridsim

import (
	"fmt"
	"os"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"gopkg.in/yaml.v3"
)

// Layout characters
const (
	Wall  byte = '#'
	Free  byte = '.'
	Start byte = 'S'
)

// DefaultFloorY is the y coordinate of the agent when a scene does not
// set one
const DefaultFloorY float64 = 0.9

// ObjectSpec places an object of some type on a free cell
type ObjectSpec struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	Row  int    `yaml:"row"`
	Col  int    `yaml:"col"`
}

// Scene describes a grid world. Row r and column c of the layout is
// the cell centred at x = c * gridSize, z = r * gridSize.
type Scene struct {
	Name     string       `yaml:"name"`
	Layout   []string     `yaml:"layout"`
	Objects  []ObjectSpec `yaml:"objects"`
	Rotation float64      `yaml:"rotation"`
	FloorY   float64      `yaml:"floorY"`
}

// sceneFile is the on-disk layout of a scene file
type sceneFile struct {
	Scenes []Scene `yaml:"scenes"`
}

// LoadScenes reads the scenes of a YAML scene file
func LoadScenes(path string) ([]Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loadScenes: could not read scene file: %w",
			err)
	}

	var f sceneFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("loadScenes: %v: %w", path, err)
	}
	return f.Scenes, nil
}

// cell is a (row, col) grid coordinate
type cell struct {
	row, col int
}

// parsedScene is a validated Scene
type parsedScene struct {
	Scene
	rows, cols int
	walls      [][]bool
	start      cell
	objects    []robothor.Object
	objectCell []cell
}

func parseScene(s Scene, gridSize float64) (*parsedScene, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("parseScene: scene has no name")
	}
	if len(s.Layout) == 0 {
		return nil, fmt.Errorf("parseScene: scene %v has no layout", s.Name)
	}
	if s.FloorY == 0 {
		s.FloorY = DefaultFloorY
	}

	p := &parsedScene{
		Scene: s,
		rows:  len(s.Layout),
		cols:  len(s.Layout[0]),
		start: cell{-1, -1},
	}

	p.walls = make([][]bool, p.rows)
	for r, line := range s.Layout {
		if len(line) != p.cols {
			return nil, fmt.Errorf("parseScene: scene %v row %v has %v "+
				"columns, want %v", s.Name, r, len(line), p.cols)
		}

		p.walls[r] = make([]bool, p.cols)
		for c := 0; c < len(line); c++ {
			switch line[c] {
			case Free:
			case Start:
				p.start = cell{r, c}
			case Wall:
				p.walls[r][c] = true
			default:
				return nil, fmt.Errorf("parseScene: scene %v has illegal "+
					"layout character %q", s.Name, line[c])
			}
		}
	}
	if p.start.row < 0 {
		return nil, fmt.Errorf("parseScene: scene %v has no start cell",
			s.Name)
	}

	for i, o := range s.Objects {
		at := cell{o.Row, o.Col}
		if !p.free(at) {
			return nil, fmt.Errorf("parseScene: object %v of scene %v is "+
				"not on a free cell", o.Type, s.Name)
		}

		id := o.ID
		if id == "" {
			id = fmt.Sprintf("%v|%v", o.Type, i)
		}
		p.objects = append(p.objects, robothor.Object{
			ObjectID:   id,
			ObjectType: o.Type,
			Position: robothor.Vector3{
				X: float64(o.Col) * gridSize,
				Y: s.FloorY,
				Z: float64(o.Row) * gridSize,
			},
		})
		p.objectCell = append(p.objectCell, at)
	}

	return p, nil
}

// free returns whether c is inside the layout and not a wall
func (p *parsedScene) free(c cell) bool {
	if c.row < 0 || c.row >= p.rows || c.col < 0 || c.col >= p.cols {
		return false
	}
	return !p.walls[c.row][c.col]
}

// id returns the graph node id of a cell
func (p *parsedScene) id(c cell) int64 {
	return int64(c.row*p.cols + c.col)
}

// cellOf returns the cell of node id
func (p *parsedScene) cellOf(id int64) cell {
	return cell{int(id) / p.cols, int(id) % p.cols}
}
