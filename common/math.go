package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// ConstantBufferAlignment is the minimum size and offset alignment, in bytes, of a constant (uniform) buffer binding.
const ConstantBufferAlignment = 256

// AlignUp rounds size up to the next multiple of alignment. The alignment must be a power of two;
// an alignment of zero returns size unchanged.
//
// Parameters:
//   - size: the size in bytes to align
//   - alignment: the power-of-two alignment in bytes
//
// Returns:
//   - uint64: the aligned size
func AlignUp(size, alignment uint64) uint64 {
	if alignment == 0 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// LookToLH builds a left-handed view matrix looking from eye along dir.
// The result is column-major and transforms column vectors, with clip depth in [0, 1] once combined
// with PerspectiveFovLH.
//
// Parameters:
//   - eye: the camera position
//   - dir: the view direction, need not be normalized but must be non-zero
//   - up: the world up vector
//
// Returns:
//   - mgl32.Mat4: the view matrix
func LookToLH(eye, dir, up mgl32.Vec3) mgl32.Mat4 {
	z := dir.Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x)

	return mgl32.Mat4{
		x[0], y[0], z[0], 0,
		x[1], y[1], z[1], 0,
		x[2], y[2], z[2], 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}
}

// PerspectiveFovLH builds a left-handed perspective projection mapping view depth [near, far] to [0, 1].
// The result is column-major and transforms column vectors.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func PerspectiveFovLH(fovY, aspect, near, far float32) mgl32.Mat4 {
	h := float32(1.0 / math.Tan(float64(fovY)/2.0))
	w := h / aspect
	r := far / (far - near)

	return mgl32.Mat4{
		w, 0, 0, 0,
		0, h, 0, 0,
		0, 0, r, 1,
		0, 0, -r * near, 0,
	}
}
