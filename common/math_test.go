package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestAlignUp(t *testing.T) {
	cases := []struct {
		size, align, want uint64
	}{
		{0, 256, 0},
		{1, 256, 256},
		{64, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
		{100, 0, 100},
	}
	for _, tc := range cases {
		if got := AlignUp(tc.size, tc.align); got != tc.want {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", tc.size, tc.align, got, tc.want)
		}
	}
}

func TestVertexLayout(t *testing.T) {
	if VertexStride != 28 {
		t.Fatalf("VertexStride = %d, want 28", VertexStride)
	}
	if VertexPositionOffset != 0 || VertexColorOffset != 12 {
		t.Fatalf("offsets = %d/%d, want 0/12", VertexPositionOffset, VertexColorOffset)
	}
	vs := []Vertex{{}, {}}
	if got := len(SliceToBytes(vs)); got != 56 {
		t.Fatalf("SliceToBytes length = %d, want 56", got)
	}
}

func TestLookToLHMapsForwardToPositiveZ(t *testing.T) {
	eye := mgl32.Vec3{1, 2, 3}
	view := LookToLH(eye, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0})

	p := view.Mul4x1(mgl32.Vec4{1, 2, 5, 1})
	want := mgl32.Vec4{0, 0, 2, 1}
	for i := range want {
		if math.Abs(float64(p[i]-want[i])) > 1e-6 {
			t.Fatalf("point ahead of the eye mapped to %v", p)
		}
	}
	right := view.Mul4x1(mgl32.Vec4{2, 2, 3, 1})
	if right.X() <= 0 {
		t.Fatalf("+X should stay on the right in a left-handed view, got %v", right)
	}
}

func TestPerspectiveFovLHDepthRange(t *testing.T) {
	near, far := float32(0.5), float32(100)
	proj := PerspectiveFovLH(float32(math.Pi/3), 1.5, near, far)

	for _, tc := range []struct {
		z, want float32
	}{
		{near, 0},
		{far, 1},
	} {
		clip := proj.Mul4x1(mgl32.Vec4{0, 0, tc.z, 1})
		if d := clip.Z() / clip.W(); math.Abs(float64(d-tc.want)) > 1e-5 {
			t.Errorf("depth at z=%v is %v, want %v", tc.z, d, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float32
	}{
		{0.5, -1, 1, 0.5},
		{-2, -1, 1, -1},
		{3, -1, 1, 1},
		{1, -1, 1, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
