// Package atype is the runtime's type registry (spec.md §3, §4.1): the
// closed enumeration of every value kind that can cross the parameter and
// array transport layer, plus the free functions that describe each entry.
//
// No other package may hard-code a type's size, component count or name;
// everything goes through the table in this file. The table is the single
// source of truth, the way driver.PixelFmt's const block is the single
// source of truth for pixel layout in a GPU abstraction (the teacher's
// driver/core.go groups format metadata the same way, just for pixels
// instead of parameters).
package atype

import "fmt"

// DataType is a closed enumeration identifying every transportable value
// kind. Entries are stable, wire-visible metadata: code must reference
// them by symbol, never by ordinal (spec.md §3).
type DataType int

// ScalarKind is the base scalar a DataType is built from.
type ScalarKind int

const (
	ScalarNone ScalarKind = iota
	ScalarInt8
	ScalarUint8
	ScalarInt16
	ScalarUint16
	ScalarInt32
	ScalarUint32
	ScalarInt64
	ScalarUint64
	ScalarFloat32
	ScalarFloat64
	ScalarBool32
	ScalarHandle
	ScalarString
	ScalarPointer
)

// The enumeration. Grouped the way driver/core.go groups PixelFmt: scalars
// before vectors before matrices before boxes before everything else.
const (
	Unknown DataType = iota

	Int8
	Int8Vec2
	Int8Vec3
	Int8Vec4
	Uint8
	Uint8Vec2
	Uint8Vec3
	Uint8Vec4

	Int16
	Int16Vec2
	Int16Vec3
	Int16Vec4
	Uint16
	Uint16Vec2
	Uint16Vec3
	Uint16Vec4

	Int32
	Int32Vec2
	Int32Vec3
	Int32Vec4
	Uint32
	Uint32Vec2
	Uint32Vec3
	Uint32Vec4

	Int64
	Int64Vec2
	Int64Vec3
	Int64Vec4
	Uint64
	Uint64Vec2
	Uint64Vec3
	Uint64Vec4

	Float32
	Float32Vec2
	Float32Vec3
	Float32Vec4

	Float64
	Float64Vec2
	Float64Vec3
	Float64Vec4

	Float32Mat2
	Float32Mat3
	Float32Mat2x3
	Float32Mat3x4
	Float32Mat4

	Box1i
	Box2i
	Box3i
	Box4i
	Box1f
	Box2f
	Box3f
	Box4f

	String
	VoidPointer
	Bool

	// Generic handle: refers to any object, kind unchecked by the type
	// system itself (checked at commit time against backend metadata,
	// spec.md §4.3 "Type agreement").
	Object

	// One concrete handle type per object kind (spec.md §3 "Data Type").
	Array1D
	Array2D
	Array3D
	Camera
	Frame
	Geometry
	Group
	Instance
	Light
	Material
	Renderer
	Sampler
	SpatialField
	Surface
	Volume
	World
	Library
	Device

	numDataTypes
)

type entry struct {
	name       string
	size       int
	components int
	scalar     ScalarKind
	isObject   bool
}

// table is the registry's single source of truth. size is the byte size
// of one full value (all components together); components is the
// component count (1 for scalars); scalar is the base element kind.
var table = [numDataTypes]entry{
	Unknown: {"UNKNOWN", 0, 0, ScalarNone, false},

	Int8: {"INT8", 1, 1, ScalarInt8, false},
	Int8Vec2: {"INT8_VEC2", 2, 2, ScalarInt8, false},
	Int8Vec3: {"INT8_VEC3", 3, 3, ScalarInt8, false},
	Int8Vec4: {"INT8_VEC4", 4, 4, ScalarInt8, false},
	Uint8: {"UINT8", 1, 1, ScalarUint8, false},
	Uint8Vec2: {"UINT8_VEC2", 2, 2, ScalarUint8, false},
	Uint8Vec3: {"UINT8_VEC3", 3, 3, ScalarUint8, false},
	Uint8Vec4: {"UINT8_VEC4", 4, 4, ScalarUint8, false},

	Int16: {"INT16", 2, 1, ScalarInt16, false},
	Int16Vec2: {"INT16_VEC2", 4, 2, ScalarInt16, false},
	Int16Vec3: {"INT16_VEC3", 6, 3, ScalarInt16, false},
	Int16Vec4: {"INT16_VEC4", 8, 4, ScalarInt16, false},
	Uint16: {"UINT16", 2, 1, ScalarUint16, false},
	Uint16Vec2: {"UINT16_VEC2", 4, 2, ScalarUint16, false},
	Uint16Vec3: {"UINT16_VEC3", 6, 3, ScalarUint16, false},
	Uint16Vec4: {"UINT16_VEC4", 8, 4, ScalarUint16, false},

	Int32: {"INT32", 4, 1, ScalarInt32, false},
	Int32Vec2: {"INT32_VEC2", 8, 2, ScalarInt32, false},
	Int32Vec3: {"INT32_VEC3", 12, 3, ScalarInt32, false},
	Int32Vec4: {"INT32_VEC4", 16, 4, ScalarInt32, false},
	Uint32: {"UINT32", 4, 1, ScalarUint32, false},
	Uint32Vec2: {"UINT32_VEC2", 8, 2, ScalarUint32, false},
	Uint32Vec3: {"UINT32_VEC3", 12, 3, ScalarUint32, false},
	Uint32Vec4: {"UINT32_VEC4", 16, 4, ScalarUint32, false},

	Int64: {"INT64", 8, 1, ScalarInt64, false},
	Int64Vec2: {"INT64_VEC2", 16, 2, ScalarInt64, false},
	Int64Vec3: {"INT64_VEC3", 24, 3, ScalarInt64, false},
	Int64Vec4: {"INT64_VEC4", 32, 4, ScalarInt64, false},
	Uint64: {"UINT64", 8, 1, ScalarUint64, false},
	Uint64Vec2: {"UINT64_VEC2", 16, 2, ScalarUint64, false},
	Uint64Vec3: {"UINT64_VEC3", 24, 3, ScalarUint64, false},
	Uint64Vec4: {"UINT64_VEC4", 32, 4, ScalarUint64, false},

	Float32: {"FLOAT32", 4, 1, ScalarFloat32, false},
	Float32Vec2: {"FLOAT32_VEC2", 8, 2, ScalarFloat32, false},
	Float32Vec3: {"FLOAT32_VEC3", 12, 3, ScalarFloat32, false},
	Float32Vec4: {"FLOAT32_VEC4", 16, 4, ScalarFloat32, false},

	Float64: {"FLOAT64", 8, 1, ScalarFloat64, false},
	Float64Vec2: {"FLOAT64_VEC2", 16, 2, ScalarFloat64, false},
	Float64Vec3: {"FLOAT64_VEC3", 24, 3, ScalarFloat64, false},
	Float64Vec4: {"FLOAT64_VEC4", 32, 4, ScalarFloat64, false},

	Float32Mat2:   {"FLOAT32_MAT2", 16, 4, ScalarFloat32, false},
	Float32Mat3:   {"FLOAT32_MAT3", 36, 9, ScalarFloat32, false},
	Float32Mat2x3: {"FLOAT32_MAT2x3", 24, 6, ScalarFloat32, false},
	Float32Mat3x4: {"FLOAT32_MAT3x4", 48, 12, ScalarFloat32, false},
	Float32Mat4:   {"FLOAT32_MAT4", 64, 16, ScalarFloat32, false},

	Box1i: {"BOX1_INT32", 8, 2, ScalarInt32, false},
	Box2i: {"BOX2_INT32", 16, 4, ScalarInt32, false},
	Box3i: {"BOX3_INT32", 24, 6, ScalarInt32, false},
	Box4i: {"BOX4_INT32", 32, 8, ScalarInt32, false},
	Box1f: {"BOX1_FLOAT32", 8, 2, ScalarFloat32, false},
	Box2f: {"BOX2_FLOAT32", 16, 4, ScalarFloat32, false},
	Box3f: {"BOX3_FLOAT32", 24, 6, ScalarFloat32, false},
	Box4f: {"BOX4_FLOAT32", 32, 8, ScalarFloat32, false},

	String:      {"STRING", 0, 1, ScalarString, false},
	VoidPointer: {"VOID_POINTER", 8, 1, ScalarPointer, false},
	Bool:        {"BOOL", 4, 1, ScalarBool32, false},

	Object: {"OBJECT", 8, 1, ScalarHandle, true},

	Array1D:      {"ARRAY1D", 8, 1, ScalarHandle, true},
	Array2D:      {"ARRAY2D", 8, 1, ScalarHandle, true},
	Array3D:      {"ARRAY3D", 8, 1, ScalarHandle, true},
	Camera:       {"CAMERA", 8, 1, ScalarHandle, true},
	Frame:        {"FRAME", 8, 1, ScalarHandle, true},
	Geometry:     {"GEOMETRY", 8, 1, ScalarHandle, true},
	Group:        {"GROUP", 8, 1, ScalarHandle, true},
	Instance:     {"INSTANCE", 8, 1, ScalarHandle, true},
	Light:        {"LIGHT", 8, 1, ScalarHandle, true},
	Material:     {"MATERIAL", 8, 1, ScalarHandle, true},
	Renderer:     {"RENDERER", 8, 1, ScalarHandle, true},
	Sampler:      {"SAMPLER", 8, 1, ScalarHandle, true},
	SpatialField: {"SPATIAL_FIELD", 8, 1, ScalarHandle, true},
	Surface:      {"SURFACE", 8, 1, ScalarHandle, true},
	Volume:       {"VOLUME", 8, 1, ScalarHandle, true},
	World:        {"WORLD", 8, 1, ScalarHandle, true},
	Library:      {"LIBRARY", 8, 1, ScalarHandle, true},
	Device:       {"DEVICE", 8, 1, ScalarHandle, true},
}

func lookup(t DataType) entry {
	if t < 0 || t >= numDataTypes {
		return table[Unknown]
	}
	return table[t]
}

// Size returns the byte size of one value of t. For String it is 0: a
// string's size is the length of the bytes plus NUL, known only at
// transport time, not from the registry.
func Size(t DataType) int { return lookup(t).size }

// Components returns the number of scalar components in t.
func Components(t DataType) int { return lookup(t).components }

// IsObject reports whether t denotes a handle to a runtime object.
func IsObject(t DataType) bool { return lookup(t).isObject }

// BaseScalar returns the scalar kind t is built from.
func BaseScalar(t DataType) ScalarKind { return lookup(t).scalar }

// Name returns t's stable string name, the same spelling used on the
// wire and in debug traces.
func Name(t DataType) string { return lookup(t).name }

func (t DataType) String() string {
	if n := Name(t); n != "UNKNOWN" || t == Unknown {
		return n
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// Visitor specializes a dispatch per type category (spec.md §4.1: "a
// dispatching visitor that takes a type value and forwards to a generic
// callable specialized per type"). Visit is exhaustive over every
// category in the enumeration; adding a new category without adding a
// case to Visit's switch is caught by TestVisitExhaustive, the registry's
// build-time-ish substitute for a compiler exhaustiveness check (Go has
// no enum exhaustiveness checking, so the invariant is enforced by test
// instead, per the teacher's style of enforcing invariants with tests
// rather than code generation — see driver/core_test.go).
type Visitor interface {
	VisitScalar(t DataType, scalar ScalarKind)
	VisitVector(t DataType, scalar ScalarKind, n int)
	VisitMatrix(t DataType, rows, cols int)
	VisitBox(t DataType, scalar ScalarKind, dim int)
	VisitString(t DataType)
	VisitPointer(t DataType)
	VisitBool(t DataType)
	VisitHandle(t DataType)
	VisitUnknown(t DataType)
}

// Visit dispatches t to the matching Visitor method.
func Visit(t DataType, v Visitor) {
	switch {
	case t == Unknown:
		v.VisitUnknown(t)
	case t == String:
		v.VisitString(t)
	case t == VoidPointer:
		v.VisitPointer(t)
	case t == Bool:
		v.VisitBool(t)
	case IsObject(t):
		v.VisitHandle(t)
	case isMatrix(t):
		rows, cols := matrixShape(t)
		v.VisitMatrix(t, rows, cols)
	case isBox(t):
		dim := Components(t) / 2
		v.VisitBox(t, BaseScalar(t), dim)
	case Components(t) == 1:
		v.VisitScalar(t, BaseScalar(t))
	case Components(t) > 1:
		v.VisitVector(t, BaseScalar(t), Components(t))
	default:
		v.VisitUnknown(t)
	}
}

func isMatrix(t DataType) bool {
	switch t {
	case Float32Mat2, Float32Mat3, Float32Mat2x3, Float32Mat3x4, Float32Mat4:
		return true
	}
	return false
}

func matrixShape(t DataType) (rows, cols int) {
	switch t {
	case Float32Mat2:
		return 2, 2
	case Float32Mat3:
		return 3, 3
	case Float32Mat2x3:
		return 2, 3
	case Float32Mat3x4:
		return 3, 4
	case Float32Mat4:
		return 4, 4
	}
	return 0, 0
}

func isBox(t DataType) bool {
	switch t {
	case Box1i, Box2i, Box3i, Box4i, Box1f, Box2f, Box3f, Box4f:
		return true
	}
	return false
}
