// Package viz draws top-down views of navigation episodes
package viz

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/navtask"
)

// Colours of the trajectory image
var (
	Background = color.RGBA{255, 255, 255, 255}
	Floor      = color.RGBA{210, 210, 210, 255}
	PathColour = color.RGBA{30, 90, 200, 255}
	Optimal    = color.RGBA{250, 160, 40, 255}
	StartPoint = color.RGBA{40, 170, 60, 255}
	EndPoint   = color.RGBA{200, 40, 40, 255}
	TargetCell = color.RGBA{240, 210, 0, 255}
)

// frame maps the xz plane of a scene onto image pixels. The x axis
// runs right and the z axis runs down.
type frame struct {
	minX, minZ float64
	scale      float64
	width      int
	height     int
}

// newFrame returns a frame which fits all argument points with a
// margin of one grid cell
func newFrame(points []robothor.Vector3, gridSize,
	pixelsPerMeter float64) frame {
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minZ, maxZ = math.Min(minZ, p.Z), math.Max(maxZ, p.Z)
	}
	minX, minZ = minX-gridSize, minZ-gridSize
	maxX, maxZ = maxX+gridSize, maxZ+gridSize

	return frame{
		minX:   minX,
		minZ:   minZ,
		scale:  pixelsPerMeter,
		width:  int(math.Ceil((maxX - minX) * pixelsPerMeter)),
		height: int(math.Ceil((maxZ - minZ) * pixelsPerMeter)),
	}
}

// pixel returns the pixel coordinates of a point
func (f frame) pixel(p robothor.Vector3) (float64, float64) {
	return (p.X - f.minX) * f.scale, (p.Z - f.minZ) * f.scale
}

// Trajectory draws the reachable floor of the current scene with the
// path followed in an episode on top of it. The optimal path corners
// are drawn if known, and so is the target point of PointNav episodes.
func Trajectory(env *robothor.Environment, info *navtask.Info,
	optimal []robothor.Vector3, pixelsPerMeter float64) (image.Image,
	error) {
	if pixelsPerMeter <= 0 {
		return nil, fmt.Errorf("trajectory: pixels per meter must be "+
			"positive, got %v", pixelsPerMeter)
	}
	if info == nil || len(info.FollowedPath) == 0 {
		return nil, fmt.Errorf("trajectory: no followed path to draw")
	}

	reachable, err := env.CurrentlyReachablePoints()
	if err != nil {
		return nil, fmt.Errorf("trajectory: %w", err)
	}
	gridSize := env.Config().GridSize

	path := make([]robothor.Vector3, len(info.FollowedPath))
	for i, pose := range info.FollowedPath {
		path[i] = pose.Position()
	}
	points := append(append([]robothor.Vector3(nil), reachable...), path...)
	points = append(points, optimal...)
	if info.Target != nil {
		points = append(points, *info.Target)
	}

	f := newFrame(points, gridSize, pixelsPerMeter)
	dc := gg.NewContext(f.width, f.height)
	dc.SetColor(Background)
	dc.Clear()

	// Floor
	cell := gridSize * f.scale
	for _, p := range reachable {
		x, y := f.pixel(p)
		dc.DrawRectangle(x-cell/2, y-cell/2, cell, cell)
	}
	dc.SetColor(Floor)
	dc.Fill()

	if info.Target != nil {
		x, y := f.pixel(*info.Target)
		dc.DrawRectangle(x-cell/2, y-cell/2, cell, cell)
		dc.SetColor(TargetCell)
		dc.Fill()
	}

	drawPolyline(dc, f, optimal, Optimal, cell/6)
	drawPolyline(dc, f, path, PathColour, cell/4)

	x, y := f.pixel(path[0])
	dc.DrawCircle(x, y, cell/4)
	dc.SetColor(StartPoint)
	dc.Fill()

	x, y = f.pixel(path[len(path)-1])
	dc.DrawCircle(x, y, cell/4)
	dc.SetColor(EndPoint)
	dc.Fill()

	return dc.Image(), nil
}

// SaveTrajectory draws a trajectory and saves it as a PNG image
func SaveTrajectory(filename string, env *robothor.Environment,
	info *navtask.Info, optimal []robothor.Vector3,
	pixelsPerMeter float64) error {
	img, err := Trajectory(env, info, optimal, pixelsPerMeter)
	if err != nil {
		return fmt.Errorf("saveTrajectory: %w", err)
	}
	if err := gg.SavePNG(filename, img); err != nil {
		return fmt.Errorf("saveTrajectory: %w", err)
	}
	return nil
}

func drawPolyline(dc *gg.Context, f frame, points []robothor.Vector3,
	c color.Color, width float64) {
	if len(points) < 2 {
		return
	}

	dc.ClearPath()
	for _, p := range points {
		dc.LineTo(f.pixel(p))
	}
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.Stroke()
}
