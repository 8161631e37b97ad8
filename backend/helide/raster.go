package helide

import (
	"encoding/binary"
	"math"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/frame"
	"github.com/anari-go/anari/internal/linear"
	"github.com/anari-go/anari/object"
)

// resolveCamera reads a CAMERA object's committed position/direction/up/
// fovy parameters, filling in spec-reasonable defaults for anything
// left unset.
func resolveCamera(cam *object.Object) (pos, dir, up linear.V3, fovy float32) {
	pos = linear.V3{0, 0, 1}
	dir = linear.V3{0, 0, -1}
	up = linear.V3{0, 1, 0}
	fovy = float32(math.Pi) / 3
	if cam == nil {
		return
	}
	if v, ok := committedVec3(cam, "position"); ok {
		pos = v
	}
	if v, ok := committedVec3(cam, "direction"); ok {
		dir = v
	}
	if v, ok := committedVec3(cam, "up"); ok {
		up = v
	}
	if v, ok := cam.Params().GetCommitted("fovy"); ok && v.Type == atype.Float32 {
		fovy = math.Float32frombits(binary.LittleEndian.Uint32(v.Bytes()))
	}
	return
}

// rasterize flat-shades tris into fr's "color" and "depth" channels
// using a barycentric-coordinate triangle fill, the simplest rasterizer
// that still respects per-triangle occlusion via a depth buffer.
func rasterize(tris []triangle, pos, dir, up linear.V3, fovy float32, width, height uint32) (color, depth []byte) {
	color = make([]byte, int(width)*int(height)*16)
	depth = make([]byte, int(width)*int(height)*4)
	depthF := make([]float32, int(width)*int(height))
	for i := range depthF {
		depthF[i] = math.MaxFloat32
	}

	var center linear.V3
	center.Add(&pos, &dir)
	view := linear.LookAt(pos, center, up)
	proj := linear.Perspective(fovy, float32(width)/float32(height), 0.01, 1000)
	var vp linear.M4
	vp.Mul(&proj, &view)

	type screenVert struct {
		x, y, z, w float32
	}
	toScreen := func(p linear.V3) screenVert {
		v4 := linear.V4{p[0], p[1], p[2], 1}
		var clip linear.V4
		clip.Mul(&vp, &v4)
		if clip[3] == 0 {
			clip[3] = 1e-6
		}
		ndcX, ndcY, ndcZ := clip[0]/clip[3], clip[1]/clip[3], clip[2]/clip[3]
		return screenVert{
			x: (ndcX*0.5 + 0.5) * float32(width),
			y: (1 - (ndcY*0.5 + 0.5)) * float32(height),
			z: ndcZ,
			w: clip[3],
		}
	}

	for _, tri := range tris {
		a, b, c := toScreen(tri.p0), toScreen(tri.p1), toScreen(tri.p2)
		if a.w <= 0 || b.w <= 0 || c.w <= 0 {
			continue // trivial near-plane reject
		}
		minX, maxX := clampRange(min3(a.x, b.x, c.x), max3(a.x, b.x, c.x), width)
		minY, maxY := clampRange(min3(a.y, b.y, c.y), max3(a.y, b.y, c.y), height)
		area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
		if area == 0 {
			continue
		}
		for y := minY; y < maxY; y++ {
			for x := minX; x < maxX; x++ {
				px, py := float32(x)+0.5, float32(y)+0.5
				w0 := edge(b.x, b.y, c.x, c.y, px, py) / area
				w1 := edge(c.x, c.y, a.x, a.y, px, py) / area
				w2 := edge(a.x, a.y, b.x, b.y, px, py) / area
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				z := w0*a.z + w1*b.z + w2*c.z
				idx := y*int(width) + x
				if z >= depthF[idx] {
					continue
				}
				depthF[idx] = z
				writeVec4(color, idx, tri.color)
				binary.LittleEndian.PutUint32(depth[idx*4:idx*4+4], math.Float32bits(z))
			}
		}
	}
	return
}

func writeVec4(dst []byte, idx int, v linear.V4) {
	off := idx * 16
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(dst[off+i*4:off+i*4+4], math.Float32bits(v[i]))
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (px-ax)*(by-ay) - (py-ay)*(bx-ax)
}

func min3(a, b, c float32) float32 { return minf(a, minf(b, c)) }
func max3(a, b, c float32) float32 { return maxf(a, maxf(b, c)) }
func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clampRange(lo, hi float32, limit uint32) (int, int) {
	l := int(lo)
	h := int(hi) + 1
	if l < 0 {
		l = 0
	}
	if h > int(limit) {
		h = int(limit)
	}
	if l > h {
		l = h
	}
	return l, h
}

// render is the device.Renderer entry point: resolve the frame's
// world/camera, rasterize, and publish the result channels.
func render(t *object.Table, frameObj *object.Object, fr *frame.Instance) error {
	width, height := fr.Dims()

	worldH, ok := committedHandle(frameObj, "world")
	var tris []triangle
	if ok {
		tris = resolveScene(t, worldH)
	}

	var cam *object.Object
	if camH, ok := committedHandle(frameObj, "camera"); ok {
		cam, _ = t.Get(camH)
	}
	pos, dir, up, fovy := resolveCamera(cam)

	color, depth := rasterize(tris, pos, dir, up, fovy, width, height)
	if err := fr.SetChannelData("color", color); err != nil {
		return err
	}
	return fr.SetChannelData("depth", depth)
}
