package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/g3n/engine/loader/obj"
	"github.com/g3n/engine/math32"
)

const testOBJ = `o tri
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
usemtl red
f 1 2 3
o quad
usemtl green
f 1 2 4 3
`

const testMTL = `newmtl red
Kd 1 0 0
newmtl green
Kd 0 1 0
`

func TestLoadReaderExpandsFaces(t *testing.T) {
	l := NewLoader(BackendTypeOBJ, WithWorkers(2))
	defer l.Close()

	m, err := l.LoadReader("scene", strings.NewReader(testOBJ), strings.NewReader(testMTL))
	if err != nil {
		t.Fatalf("LoadReader: %+v", err)
	}

	// 3 corners from the triangle plus two fan triangles from the quad.
	if m.VertexCount() != 9 {
		t.Fatalf("vertex count = %d, want 9", m.VertexCount())
	}

	red := [4]float32{1, 0, 0, 1}
	green := [4]float32{0, 1, 0, 1}
	for i, v := range m.Vertices() {
		want := green
		if i < 3 {
			want = red
		}
		if v.Color != want {
			t.Errorf("vertex %d color = %v, want %v", i, v.Color, want)
		}
		if v.Color[3] != 1 {
			t.Errorf("vertex %d alpha = %v", i, v.Color[3])
		}
	}

	quad := m.Vertices()[3:]
	wantQuad := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for i, p := range wantQuad {
		if quad[i].Position != p {
			t.Errorf("quad corner %d = %v, want %v", i, quad[i].Position, p)
		}
	}

	if got := l.Get("scene"); got != m {
		t.Fatal("model was not cached")
	}
	again, err := l.LoadReader("scene", strings.NewReader(""), nil)
	if err != nil || again != m {
		t.Fatalf("second LoadReader = %v, %v, want the cached model", again, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader(BackendTypeOBJ, WithWorkers(1))
	defer l.Close()

	dir := t.TempDir()
	tests := []struct {
		name string
		obj  string
		mtl  string
	}{
		{"missing obj", filepath.Join(dir, "nope.obj"), ""},
		{"missing mtl", writeFile(t, dir, "mesh.obj", testOBJ), filepath.Join(dir, "nope.mtl")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load(tt.obj, tt.mtl)
			if !errors.Is(err, common.ErrAssetLoad) {
				t.Fatalf("err = %v, want an asset load error", err)
			}
		})
	}
	if len(l.Models()) != 0 {
		t.Fatal("failed loads must not be cached")
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	objPath := writeFile(t, dir, "mesh.obj", testOBJ)
	mtlPath := writeFile(t, dir, "mesh.mtl", testMTL)

	l := NewLoader(BackendTypeOBJ)
	defer l.Close()

	m, err := l.Load(objPath, mtlPath)
	if err != nil {
		t.Fatalf("Load: %+v", err)
	}
	if m.VertexCount() != 9 || m.Source() != objPath {
		t.Fatalf("model = %d vertices from %q", m.VertexCount(), m.Source())
	}
}

func TestLoadReaderMaterials(t *testing.T) {
	const plain = "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	const redOnly = "newmtl red\nKd 1 0 0\n"

	tests := []struct {
		name    string
		obj     string
		mtl     io.Reader
		want    [4]float32
		wantErr bool
	}{
		{"no library", plain, nil, DefaultColor, false},
		{"no usemtl", plain, strings.NewReader(redOnly), DefaultColor, false},
		{"defined", "v 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n", strings.NewReader(redOnly), [4]float32{1, 0, 0, 1}, false},
		{"undefined", "v 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl nosuch\nf 1 2 3\n", strings.NewReader(redOnly), [4]float32{}, true},
		{"usemtl without library", "v 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n", nil, [4]float32{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(BackendTypeOBJ, WithWorkers(1))
			defer l.Close()

			m, err := l.LoadReader(tt.name, strings.NewReader(tt.obj), tt.mtl)
			if tt.wantErr {
				if !errors.Is(err, common.ErrAssetLoad) {
					t.Fatalf("err = %v, want an asset load error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadReader: %+v", err)
			}
			if m.VertexCount() != 3 {
				t.Fatalf("vertex count = %d, want 3", m.VertexCount())
			}
			for i, v := range m.Vertices() {
				if v.Color != tt.want {
					t.Errorf("vertex %d color = %v, want %v", i, v.Color, tt.want)
				}
			}
		})
	}
}

func TestLoadResolvesMtllib(t *testing.T) {
	const mesh = "mtllib lib.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n"

	t.Run("relative to the mesh", func(t *testing.T) {
		dir := t.TempDir()
		objPath := writeFile(t, dir, "mesh.obj", mesh)
		writeFile(t, dir, "lib.mtl", "newmtl red\nKd 1 0 0\n")

		l := NewLoader(BackendTypeOBJ, WithWorkers(1))
		defer l.Close()
		m, err := l.Load(objPath, "")
		if err != nil {
			t.Fatalf("Load: %+v", err)
		}
		if c := m.Vertices()[0].Color; c != [4]float32{1, 0, 0, 1} {
			t.Fatalf("color = %v, want red", c)
		}
	})

	t.Run("dangling", func(t *testing.T) {
		dir := t.TempDir()
		objPath := writeFile(t, dir, "mesh.obj", mesh)

		l := NewLoader(BackendTypeOBJ, WithWorkers(1))
		defer l.Close()
		if _, err := l.Load(objPath, ""); !errors.Is(err, common.ErrAssetLoad) {
			t.Fatalf("err = %v, want an asset load error", err)
		}
	})

	t.Run("no mtllib", func(t *testing.T) {
		dir := t.TempDir()
		objPath := writeFile(t, dir, "mesh.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")

		l := NewLoader(BackendTypeOBJ, WithWorkers(1))
		defer l.Close()
		m, err := l.Load(objPath, "")
		if err != nil {
			t.Fatalf("Load: %+v", err)
		}
		if c := m.Vertices()[0].Color; c != DefaultColor {
			t.Fatalf("color = %v, want %v", c, DefaultColor)
		}
	})
}

func TestExpandIndexOutOfRange(t *testing.T) {
	dec := &obj.Decoder{
		Vertices: math32.ArrayF32{0, 0, 0, 1, 0, 0},
		Objects: []obj.Object{{
			Faces: []obj.Face{{Vertices: []int{0, 1, 2}}},
		}},
	}
	if _, _, err := Expand(dec, nil); !errors.Is(err, common.ErrAssetLoad) {
		t.Fatalf("err = %v, want an asset load error", err)
	}
}

func TestExpandParallelIsDeterministic(t *testing.T) {
	dec := &obj.Decoder{
		Vertices:  math32.ArrayF32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0},
		Materials: map[string]*obj.Material{},
	}
	for i := range 64 {
		name := fmt.Sprintf("m%d", i)
		dec.Materials[name] = &obj.Material{Diffuse: math32.Color{R: float32(i) / 64}}
		dec.Objects = append(dec.Objects, obj.Object{
			Name: name,
			Faces: []obj.Face{
				{Vertices: []int{0, 1, 2}, Material: name},
				{Vertices: []int{0, 1, 3, 2}, Material: name},
			},
		})
	}

	want, wantMats, err := Expand(dec, nil)
	if err != nil {
		t.Fatal(err)
	}

	pool := worker.NewDynamicWorkerPool(4, 256, 1*time.Second)
	defer pool.Stop()
	for run := range 5 {
		got, mats, err := Expand(dec, pool)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(want) || len(got) != 64*9 {
			t.Fatalf("run %d: %d vertices, want %d", run, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("run %d: vertex %d = %v, want %v", run, i, got[i], want[i])
			}
		}
		for i := range wantMats {
			if mats[i] != wantMats[i] {
				t.Fatalf("run %d: material %d = %s, want %s", run, i, mats[i], wantMats[i])
			}
		}
	}
}

func TestTriangle(t *testing.T) {
	m := Triangle(2)
	v := m.Vertices()
	if len(v) != 3 {
		t.Fatalf("triangle has %d vertices", len(v))
	}
	if v[0].Color != [4]float32{1, 0, 0, 1} || v[1].Color != [4]float32{0, 1, 0, 1} || v[2].Color != [4]float32{0, 0, 1, 1} {
		t.Fatalf("colors = %v %v %v", v[0].Color, v[1].Color, v[2].Color)
	}
	if v[0].Position[1] != 0.5 || v[1].Position[1] != -0.5 {
		t.Fatalf("aspect not applied: %v %v", v[0].Position, v[1].Position)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
