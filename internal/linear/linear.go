// Package linear implements the float32 vector/matrix math the reference
// backend needs for camera rays, instance transforms and world bounds.
// Adapted from the teacher's linear package: V3/V4/M4 and their
// Add/Sub/Scale/Dot/Cross/Mul/Transpose methods are kept verbatim (generic
// 3D math, not specific to any rendering style), M3 and the quaternion
// type are dropped since nothing in this spec skins or rotates via
// quaternions, and Box3 is new — ANARI's getProperty("bounds", ...)
// (spec.md §6.2) has no counterpart in the teacher, which never exposes
// an axis-aligned bounding box as a first-class value.
package linear

import "math"

// V3 is a 3-component vector of float32.
type V3 [3]float32

// Add sets v to contain l + r.
func (v *V3) Add(l, r *V3) {
	for i := range v {
		v[i] = l[i] + r[i]
	}
}

// Sub sets v to contain l - r.
func (v *V3) Sub(l, r *V3) {
	for i := range v {
		v[i] = l[i] - r[i]
	}
}

// Scale sets v to contain s⋅w.
func (v *V3) Scale(s float32, w *V3) {
	for i := range v {
		v[i] = s * w[i]
	}
}

// Dot returns v⋅w.
func (v *V3) Dot(w *V3) (d float32) {
	for i := range v {
		d += v[i] * w[i]
	}
	return
}

// Len returns the length of v.
func (v *V3) Len() float32 { return float32(math.Sqrt(float64(v.Dot(v)))) }

// Norm sets v to contain w normalized.
func (v *V3) Norm(w *V3) { v.Scale(1/w.Len(), w) }

// Cross sets v to contain l×r.
func (v *V3) Cross(l, r *V3) {
	v[0] = l[1]*r[2] - l[2]*r[1]
	v[1] = l[2]*r[0] - l[0]*r[2]
	v[2] = l[0]*r[1] - l[1]*r[0]
}

// V4 is a 4-component vector of float32.
type V4 [4]float32

// Add sets v to contain l + r.
func (v *V4) Add(l, r *V4) {
	for i := range v {
		v[i] = l[i] + r[i]
	}
}

// Scale sets v to contain s⋅w.
func (v *V4) Scale(s float32, w *V4) {
	for i := range v {
		v[i] = s * w[i]
	}
}

// Mul sets v to contain m⋅w.
func (v *V4) Mul(m *M4, w *V4) {
	*v = V4{}
	for i := range v {
		for j := range v {
			v[i] += m[j][i] * w[j]
		}
	}
}

// M4 is a column-major 4x4 matrix of float32.
type M4 [4]V4

// Identity sets m to the identity matrix.
func (m *M4) Identity() { *m = M4{{1}, {0, 1}, {0, 0, 1}, {0, 0, 0, 1}} }

// Mul sets m to contain l⋅r.
func (m *M4) Mul(l, r *M4) {
	*m = M4{}
	for i := range m {
		for j := range m {
			for k := range m {
				m[i][j] += l[k][j] * r[i][k]
			}
		}
	}
}

// Transpose sets m to contain the transpose of n.
func (m *M4) Transpose(n *M4) {
	for i := range m {
		m[i][i] = n[i][i]
		for j := i + 1; j < len(m); j++ {
			m[i][j], m[j][i] = n[j][i], n[i][j]
		}
	}
}

// LookAt returns the view matrix for an eye positioned at eye, looking
// toward center, with the given up direction. Used by the reference
// backend to turn a CAMERA object's position/direction/up parameters
// into the matrix that transforms world space into eye space.
func LookAt(eye, center, up V3) M4 {
	var f, u, s V3
	f.Sub(&center, &eye)
	f.Norm(&f)
	s.Cross(&f, &up)
	s.Norm(&s)
	u.Cross(&s, &f)

	var m M4
	m[0] = V4{s[0], u[0], -f[0], 0}
	m[1] = V4{s[1], u[1], -f[1], 0}
	m[2] = V4{s[2], u[2], -f[2], 0}
	m[3] = V4{-s.Dot(&eye), -u.Dot(&eye), f.Dot(&eye), 1}
	return m
}

// Perspective returns a right-handed perspective projection matrix
// with the given vertical field of view (radians), aspect ratio, and
// near/far clip distances.
func Perspective(fovy, aspect, near, far float32) M4 {
	f := float32(1 / math.Tan(float64(fovy)/2))
	var m M4
	m[0] = V4{f / aspect, 0, 0, 0}
	m[1] = V4{0, f, 0, 0}
	m[2] = V4{0, 0, (far + near) / (near - far), -1}
	m[3] = V4{0, 0, (2 * far * near) / (near - far), 0}
	return m
}

// Box3 is an axis-aligned bounding box in R3. A box is empty when Lo > Hi
// on any axis (EmptyBox3 returns one); the zero value is not empty, it
// holds the single point at the origin.
type Box3 struct {
	Lo, Hi V3
}

// EmptyBox3 returns a box that contains no points.
func EmptyBox3() Box3 {
	const inf = float32(math.MaxFloat32)
	return Box3{Lo: V3{inf, inf, inf}, Hi: V3{-inf, -inf, -inf}}
}

// Empty reports whether b contains no points.
func (b Box3) Empty() bool {
	return b.Lo[0] > b.Hi[0] || b.Lo[1] > b.Hi[1] || b.Lo[2] > b.Hi[2]
}

// ExtendPoint grows b, if necessary, to contain p.
func (b Box3) ExtendPoint(p V3) Box3 {
	for i := 0; i < 3; i++ {
		if p[i] < b.Lo[i] {
			b.Lo[i] = p[i]
		}
		if p[i] > b.Hi[i] {
			b.Hi[i] = p[i]
		}
	}
	return b
}

// Union returns the smallest box containing both a and b.
func Union(a, b Box3) Box3 {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return Box3{
		Lo: V3{min(a.Lo[0], b.Lo[0]), min(a.Lo[1], b.Lo[1]), min(a.Lo[2], b.Lo[2])},
		Hi: V3{max(a.Hi[0], b.Hi[0]), max(a.Hi[1], b.Hi[1]), max(a.Hi[2], b.Hi[2])},
	}
}

// Transform returns the axis-aligned box enclosing b after applying the
// affine transform m to each of its eight corners.
func Transform(m *M4, b Box3) Box3 {
	if b.Empty() {
		return b
	}
	out := EmptyBox3()
	for i := 0; i < 8; i++ {
		corner := V3{b.Lo[0], b.Lo[1], b.Lo[2]}
		if i&1 != 0 {
			corner[0] = b.Hi[0]
		}
		if i&2 != 0 {
			corner[1] = b.Hi[1]
		}
		if i&4 != 0 {
			corner[2] = b.Hi[2]
		}
		v4 := V4{corner[0], corner[1], corner[2], 1}
		var r V4
		r.Mul(m, &v4)
		out = out.ExtendPoint(V3{r[0], r[1], r[2]})
	}
	return out
}
