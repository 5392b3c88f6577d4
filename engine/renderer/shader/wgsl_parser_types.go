package shader

import "fmt"

// VertexFormat is the format of a single vertex attribute.
type VertexFormat int

const (
	VertexFormatUndefined VertexFormat = iota
	VertexFormatFloat32
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatSint32
	VertexFormatSint32x2
	VertexFormatSint32x3
	VertexFormatSint32x4
	VertexFormatUint32
	VertexFormatUint32x2
	VertexFormatUint32x3
	VertexFormatUint32x4
)

// Size returns the byte size of one attribute of this format, 0 for VertexFormatUndefined.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32, VertexFormatSint32, VertexFormatUint32:
		return 4
	case VertexFormatFloat32x2, VertexFormatSint32x2, VertexFormatUint32x2:
		return 8
	case VertexFormatFloat32x3, VertexFormatSint32x3, VertexFormatUint32x3:
		return 12
	case VertexFormatFloat32x4, VertexFormatSint32x4, VertexFormatUint32x4:
		return 16
	default:
		return 0
	}
}

func (f VertexFormat) String() string {
	switch f {
	case VertexFormatFloat32:
		return "float32"
	case VertexFormatFloat32x2:
		return "float32x2"
	case VertexFormatFloat32x3:
		return "float32x3"
	case VertexFormatFloat32x4:
		return "float32x4"
	case VertexFormatSint32:
		return "sint32"
	case VertexFormatSint32x2:
		return "sint32x2"
	case VertexFormatSint32x3:
		return "sint32x3"
	case VertexFormatSint32x4:
		return "sint32x4"
	case VertexFormatUint32:
		return "uint32"
	case VertexFormatUint32x2:
		return "uint32x2"
	case VertexFormatUint32x3:
		return "uint32x3"
	case VertexFormatUint32x4:
		return "uint32x4"
	default:
		return fmt.Sprintf("VertexFormat(%d)", int(f))
	}
}

// wgslTypeLayout holds the byte size and alignment of a WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField is a single struct member or entry point parameter.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct is a WGSL struct block.
type parsedStruct struct {
	name   string
	fields []parsedField
}
