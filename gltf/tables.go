package gltf

// glTF accessor componentType values.
const (
	componentInt8    = 5120
	componentUint8   = 5121
	componentInt16   = 5122
	componentUint16  = 5123
	componentUint32  = 5125
	componentFloat32 = 5126
)

// glTF primitive modes.
const (
	modeLines     = 1
	modeTriangles = 4
)

// GLB framing constants.
const (
	glbMagic        = 0x46546C67
	glbVersion      = 2
	chunkTypeJSON   = 0x4E4F534A
	chunkTypeBinary = 0x004E4942
)

// componentSize returns the byte width of one component of the given
// componentType, or 0 when the value is not a valid componentType.
func componentSize(componentType int) int {
	switch componentType {
	case componentInt8, componentUint8:
		return 1
	case componentInt16, componentUint16:
		return 2
	case componentUint32, componentFloat32:
		return 4
	default:
		return 0
	}
}

// typeWidth returns the component count of an accessor type string, or 0 when
// the string is not a valid accessor type.
func typeWidth(accessorType string) int {
	switch accessorType {
	case "SCALAR":
		return 1
	case "VEC2":
		return 2
	case "VEC3":
		return 3
	case "VEC4":
		return 4
	case "MAT2":
		return 4
	case "MAT3":
		return 9
	case "MAT4":
		return 16
	default:
		return 0
	}
}
