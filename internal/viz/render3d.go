package viz

import (
	"math"
	"sort"

	"github.com/san-kum/rs1sim/internal/dynamo"
)

// Camera is an orbiting perspective camera looking at the origin. World
// units are planet radii.
type Camera struct {
	Distance         float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 12, RotX: -1.1, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p dynamo.Vec3) dynamo.Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p[1], p[2] = p[1]*cx-p[2]*sx, p[1]*sx+p[2]*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p[0], p[2] = p[0]*cy+p[2]*sy, -p[0]*sy+p[2]*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p[0], p[1] = p[0]*cz-p[1]*sz, p[0]*sz+p[1]*cz
	return p
}

// Project maps a world point to dot coordinates on a sw x sh screen. The
// returned depth grows toward the camera.
func (c *Camera) Project(p dynamo.Vec3, sw, sh int) (x, y int, depth float64, ok bool) {
	rot := c.rotate(p).Scale(c.Zoom)
	if rot[2] >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot[2])
	unit := float64(min(sw, sh)) / 6
	x = int(rot[0]*scale*unit) + sw/2
	y = int(-rot[1]*scale*unit) + sh/2
	return x, y, rot[2], x >= 0 && x < sw && y >= 0 && y < sh
}

type Edge struct {
	Start, End dynamo.Vec3
}

type Wireframe struct{ Edges []Edge }

func (w *Wireframe) AddEdge(s, e dynamo.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }

// AddPolyline connects consecutive points.
func (w *Wireframe) AddPolyline(pts []dynamo.Vec3) {
	for i := 1; i < len(pts); i++ {
		w.AddEdge(pts[i-1], pts[i])
	}
}

// Render3D draws the wireframe back to front.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	type projected struct {
		x1, y1, x2, y2 int
		depth          float64
	}
	sw, sh := c.DotsX(), c.DotsY()
	proj := make([]projected, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, sw, sh)
		x2, y2, d2, v2 := cam.Project(e.End, sw, sh)
		if v1 || v2 {
			proj = append(proj, projected{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		c.DrawLine(e.x1, e.y1, e.x2, e.y2)
	}
}

// PlanetWireframe is a unit sphere drawn as the equator and two meridians.
func PlanetWireframe() *Wireframe {
	const n = 48
	w := &Wireframe{}
	for ring := range 3 {
		pts := make([]dynamo.Vec3, n+1)
		for i := range n + 1 {
			a := 2 * math.Pi * float64(i) / n
			ca, sa := math.Cos(a), math.Sin(a)
			switch ring {
			case 0:
				pts[i] = dynamo.Vec3{ca, sa, 0}
			case 1:
				pts[i] = dynamo.Vec3{ca, 0, sa}
			default:
				pts[i] = dynamo.Vec3{0, ca, sa}
			}
		}
		w.AddPolyline(pts)
	}
	return w
}

// BodyTriad draws the body axes of a spacecraft at position r (planet
// radii). dcmBN rows are the body axes expressed in the inertial frame.
func BodyTriad(w *Wireframe, r dynamo.Vec3, dcmBN dynamo.Mat3, length float64) {
	for i := range 3 {
		w.AddEdge(r, r.Add(dynamo.Vec3(dcmBN[i]).Scale(length)))
	}
}
