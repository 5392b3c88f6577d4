package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/frame_sync"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

type fakeBuffer struct {
	usage BufferUsage
	data  []byte
}

// fakeBackend executes command lists on the CPU: a draw decodes the vertices of the bound vertex
// buffer so tests can inspect what would have been rasterized.
type fakeBackend struct {
	width, height int
	count         int

	buffers   []*fakeBuffer
	pipelines []pipeline.Pipeline

	current  uint32
	acquires uint32
	executed int
	presents int
	writes   int
	releases int

	failWrites bool

	drawn    []common.Vertex
	constant []byte
}

var _ RendererBackend = &fakeBackend{}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{width: 800, height: 600, count: 2}
}

func (b *fakeBackend) SurfaceSize() (int, int)   { return b.width, b.height }
func (b *fakeBackend) BufferCount() int          { return b.count }
func (b *fakeBackend) CurrentBackBuffer() uint32 { return b.current }

func (b *fakeBackend) CreateBuffer(_ string, size uint64, usage BufferUsage) (command.BufferHandle, error) {
	b.buffers = append(b.buffers, &fakeBuffer{usage: usage, data: make([]byte, size)})
	return command.BufferHandle(len(b.buffers)), nil
}

func (b *fakeBackend) WriteBuffer(h command.BufferHandle, offset uint64, data []byte) error {
	if h == 0 || int(h) > len(b.buffers) {
		return fmt.Errorf("unknown buffer %d", h)
	}
	buf := b.buffers[h-1]
	if buf == nil {
		return fmt.Errorf("buffer %d was released", h)
	}
	if b.failWrites {
		return errors.New("injected write failure")
	}
	if offset+uint64(len(data)) > uint64(len(buf.data)) {
		return errors.New("write out of bounds")
	}
	copy(buf.data[offset:], data)
	b.writes++
	return nil
}

func (b *fakeBackend) ReleaseBuffer(h command.BufferHandle) error {
	if h == 0 || int(h) > len(b.buffers) || b.buffers[h-1] == nil {
		return fmt.Errorf("unknown buffer %d", h)
	}
	b.buffers[h-1] = nil
	return nil
}

func (b *fakeBackend) liveBuffers() int {
	n := 0
	for _, buf := range b.buffers {
		if buf != nil {
			n++
		}
	}
	return n
}

func (b *fakeBackend) CreateFence(initial uint64) (frame_sync.Fence, error) {
	return frame_sync.NewSoftFence(initial), nil
}

func (b *fakeBackend) CompilePipeline(p pipeline.Pipeline) (command.PipelineHandle, command.LayoutHandle, error) {
	b.pipelines = append(b.pipelines, p)
	return command.PipelineHandle(len(b.pipelines)), command.LayoutHandle(len(b.pipelines)), nil
}

func (b *fakeBackend) ExecuteCommandList(list *command.List) error {
	var (
		vertexBuffer command.BufferHandle
		constant     command.BufferHandle
	)
	for _, c := range list.Commands() {
		switch c.Op {
		case command.OpSetConstantBuffer:
			constant = c.Buffer
		case command.OpSetVertexBuffer:
			vertexBuffer = c.Buffer
		case command.OpDraw:
			data := b.buffers[vertexBuffer-1].data
			for i := uint32(0); i < c.VertexCount; i++ {
				b.drawn = append(b.drawn, decodeVertex(data[uint64(i)*common.VertexStride:]))
			}
		}
	}
	b.constant = append([]byte(nil), b.buffers[constant-1].data...)
	b.executed++
	return nil
}

func (b *fakeBackend) Signal(f frame_sync.Fence, value uint64) error {
	f.(*frame_sync.SoftFence).Complete(value)
	return nil
}

func (b *fakeBackend) Present() error {
	b.presents++
	return nil
}

func (b *fakeBackend) AcquireBackBuffer() (uint32, error) {
	b.acquires++
	b.current = b.acquires % uint32(b.count)
	return b.current, nil
}

func (b *fakeBackend) Release() {
	b.releases++
}

func decodeVertex(data []byte) common.Vertex {
	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return common.Vertex{
		Position: [3]float32{f(0), f(1), f(2)},
		Color:    [4]float32{f(3), f(4), f(5), f(6)},
	}
}

func defaultPipeline(t *testing.T) pipeline.Pipeline {
	t.Helper()
	vs, fs, err := shader.Default()
	if err != nil {
		t.Fatal(err)
	}
	return pipeline.NewPipeline("mesh", pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs))
}

func redTriangle() []common.Vertex {
	red := [4]float32{1, 0, 0, 1}
	return []common.Vertex{
		{Position: [3]float32{0, 0.25, 0}, Color: red},
		{Position: [3]float32{0.25, -0.25, 0}, Color: red},
		{Position: [3]float32{-0.25, -0.25, 0}, Color: red},
	}
}

func TestRenderTriangleEndToEnd(t *testing.T) {
	backend := newFakeBackend()
	r, err := NewRendererWithBackend(backend, WithPipeline(defaultPipeline(t)))
	if err != nil {
		t.Fatalf("NewRendererWithBackend: %v", err)
	}
	if err := r.LoadMesh(redTriangle()); err != nil {
		t.Fatalf("LoadMesh: %v", err)
	}

	mvp := mgl32.Translate3D(1, 2, 3)
	if err := r.Update(mvp); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := r.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if backend.executed != 1 || backend.presents != 1 {
		t.Fatalf("executed %d lists, presented %d times", backend.executed, backend.presents)
	}
	if len(backend.drawn) != 3 {
		t.Fatalf("drew %d vertices, want 3", len(backend.drawn))
	}
	for i, v := range backend.drawn {
		if v.Color != [4]float32{1, 0, 0, 1} {
			t.Fatalf("vertex %d color = %v, want opaque red", i, v.Color)
		}
	}

	got := backend.constant[:transformSize]
	want := common.StructToBytes(&mvp)
	if string(got) != string(want) {
		t.Fatal("constant buffer does not hold the written transform")
	}

	fc := r.FrameContext()
	if fc.State != frame_sync.FrameReady || fc.FenceValue != 1 || fc.Frame != 1 {
		t.Fatalf("frame context after one frame = %+v", fc)
	}
	if fc.Index != backend.current {
		t.Fatalf("frame index %d, backend acquired %d", fc.Index, backend.current)
	}
}

func TestRenderManyFrames(t *testing.T) {
	backend := newFakeBackend()
	backend.count = 3
	r, err := NewRendererWithBackend(backend, WithPipeline(defaultPipeline(t)))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.LoadMesh(redTriangle()); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		if err := r.Update(mgl32.Ident4()); err != nil {
			t.Fatalf("frame %d: Update: %v", i, err)
		}
		if err := r.Render(); err != nil {
			t.Fatalf("frame %d: Render: %v", i, err)
		}
	}
	if fv := r.FrameContext().FenceValue; fv != 10 {
		t.Fatalf("fence value = %d, want 10", fv)
	}
}

func TestRenderRequiresPipelineAndMesh(t *testing.T) {
	r, err := NewRendererWithBackend(newFakeBackend())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Render(); !errors.Is(err, common.ErrSubmit) {
		t.Fatalf("Render without pipeline = %v", err)
	}
	if err := r.RegisterPipeline(defaultPipeline(t)); err != nil {
		t.Fatal(err)
	}
	if err := r.Render(); !errors.Is(err, common.ErrSubmit) {
		t.Fatalf("Render without mesh = %v", err)
	}
	if r.FrameContext().State != frame_sync.FrameReady {
		t.Fatal("failed render left the frame out of the ready state")
	}
}

func TestRegisterPipelineCachesByKey(t *testing.T) {
	backend := newFakeBackend()
	r, err := NewRendererWithBackend(backend)
	if err != nil {
		t.Fatal(err)
	}
	p := defaultPipeline(t)
	for i := 0; i < 2; i++ {
		if err := r.RegisterPipeline(p); err != nil {
			t.Fatal(err)
		}
	}
	if len(backend.pipelines) != 1 {
		t.Fatalf("compiled %d times, want 1", len(backend.pipelines))
	}
	if r.Pipeline("mesh") != p || r.Pipeline("other") != nil {
		t.Fatal("pipeline cache lookup mismatch")
	}
}

func TestLoadMeshIsImmutable(t *testing.T) {
	r, err := NewRendererWithBackend(newFakeBackend())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.LoadMesh(nil); !errors.Is(err, common.ErrAssetLoad) {
		t.Fatalf("LoadMesh(nil) = %v", err)
	}
	if err := r.LoadMesh(redTriangle()); err != nil {
		t.Fatal(err)
	}
	if err := r.LoadMesh(redTriangle()); !errors.Is(err, common.ErrAssetLoad) {
		t.Fatalf("second LoadMesh = %v", err)
	}
	if r.VertexCount() != 3 {
		t.Fatalf("vertex count = %d", r.VertexCount())
	}
}

func TestLoadMeshReleasesBufferOnFailedUpload(t *testing.T) {
	backend := newFakeBackend()
	r, err := NewRendererWithBackend(backend)
	if err != nil {
		t.Fatal(err)
	}
	before := backend.liveBuffers()

	backend.failWrites = true
	if err := r.LoadMesh(redTriangle()); !errors.Is(err, common.ErrAssetLoad) {
		t.Fatalf("LoadMesh with a failing write = %v", err)
	}
	if got := backend.liveBuffers(); got != before {
		t.Fatalf("live buffers after failed upload = %d, want %d", got, before)
	}
	if r.VertexCount() != 0 {
		t.Fatalf("vertex count after failed upload = %d", r.VertexCount())
	}

	backend.failWrites = false
	if err := r.LoadMesh(redTriangle()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := backend.liveBuffers(); got != before+1 {
		t.Fatalf("live buffers after retry = %d, want %d", got, before+1)
	}
}

func TestResizeMismatch(t *testing.T) {
	r, err := NewRendererWithBackend(newFakeBackend())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Resize(800, 600); err != nil {
		t.Fatalf("Resize to the initial size = %v", err)
	}
	tests := []struct{ w, h int }{{1024, 600}, {800, 768}, {0, 0}}
	for _, tt := range tests {
		if err := r.Resize(tt.w, tt.h); !errors.Is(err, common.ErrResizeUnsupported) {
			t.Errorf("Resize(%d, %d) = %v", tt.w, tt.h, err)
		}
		if err := r.CheckSurface(tt.w, tt.h); !errors.Is(err, common.ErrResizeUnsupported) {
			t.Errorf("CheckSurface(%d, %d) = %v", tt.w, tt.h, err)
		}
	}
	if a := r.Aspect(); a != float32(800)/600 {
		t.Fatalf("aspect = %v", a)
	}
}

func TestUploadBufferAlignment(t *testing.T) {
	u := NewResourceUploader(newFakeBackend())
	tests := []struct {
		size  uint64
		usage BufferUsage
		want  uint64
	}{
		{64, BufferUsageConstant, 256},
		{256, BufferUsageConstant, 256},
		{300, BufferUsageConstant, 512},
		{84, BufferUsageVertex, 84},
	}
	for _, tt := range tests {
		h, err := u.CreateUploadBuffer("buf", tt.size, tt.usage)
		if err != nil {
			t.Fatal(err)
		}
		if got := u.Size(h); got != tt.want {
			t.Errorf("%s buffer of %d bytes allocated %d, want %d", tt.usage, tt.size, got, tt.want)
		}
	}
	if _, err := u.CreateUploadBuffer("empty", 0, BufferUsageVertex); !errors.Is(err, common.ErrDeviceInit) {
		t.Fatalf("zero sized buffer = %v", err)
	}
}

func TestWriteVertexDataOnce(t *testing.T) {
	u := NewResourceUploader(newFakeBackend())
	h, err := u.CreateUploadBuffer("mesh", 3*common.VertexStride, BufferUsageVertex)
	if err != nil {
		t.Fatal(err)
	}
	if err := u.WriteVertexData(h, redTriangle()); err != nil {
		t.Fatal(err)
	}
	if err := u.WriteVertexData(h, redTriangle()); !errors.Is(err, common.ErrAssetLoad) {
		t.Fatalf("second write = %v", err)
	}
}

func TestWriteConstantBlockedWhileSubmitted(t *testing.T) {
	backend := newFakeBackend()
	u := NewResourceUploader(backend)
	h, err := u.CreateUploadBuffer("transform", transformSize, BufferUsageConstant)
	if err != nil {
		t.Fatal(err)
	}

	fc := frame_sync.NewFrameContext(0)
	fc.State = frame_sync.FrameSubmitted
	if err := u.WriteConstant(fc, h, mgl32.Ident4()); !errors.Is(err, common.ErrSync) {
		t.Fatalf("WriteConstant while submitted = %v", err)
	}
	if backend.writes != 0 {
		t.Fatal("constant buffer written while GPU work was in flight")
	}

	fc.State = frame_sync.FrameReady
	if err := u.WriteConstant(fc, h, mgl32.Ident4()); err != nil {
		t.Fatalf("WriteConstant when ready = %v", err)
	}
	if err := u.WriteConstant(fc, 99, mgl32.Ident4()); !errors.Is(err, common.ErrSubmit) {
		t.Fatalf("WriteConstant to unknown buffer = %v", err)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	r, err := NewRendererWithBackend(backend, WithPipeline(defaultPipeline(t)))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.LoadMesh(redTriangle()); err != nil {
		t.Fatal(err)
	}
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := r.Destroy(); err != nil {
			t.Fatalf("Destroy #%d: %v", i+1, err)
		}
	}
	if backend.releases != 1 {
		t.Fatalf("backend released %d times", backend.releases)
	}
	if err := r.Render(); !errors.Is(err, common.ErrSubmit) {
		t.Fatalf("Render after Destroy = %v", err)
	}
}
