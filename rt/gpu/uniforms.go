package gpu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/x448/float16"
)

// PackUniforms serializes a uniform struct little-endian, field by field,
// and pads the result to a 16 byte multiple. Only exported fixed-size
// numeric fields, arrays and nested structs are allowed; the struct must
// already follow WGSL alignment.
func PackUniforms(v any) ([]byte, error) {
	var buf bytes.Buffer
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if err := readUniformsBytes(val, &buf); err != nil {
		return nil, err
	}
	if pad := buf.Len() % 16; pad != 0 {
		buf.Write(make([]byte, 16-pad))
	}
	if buf.Len() == 0 {
		buf.Write(make([]byte, 16))
	}
	return buf.Bytes(), nil
}

// MustPackUniforms is PackUniforms for statically known layouts.
func MustPackUniforms(v any) []byte {
	b, err := PackUniforms(v)
	if err != nil {
		panic(err)
	}
	return b
}

func readUniformsBytes(field reflect.Value, buf *bytes.Buffer) error {
	switch field.Kind() {
	case reflect.Array:
		for i := 0; i < field.Len(); i++ {
			if err := readUniformsBytes(field.Index(i), buf); err != nil {
				return err
			}
		}

	case reflect.Struct:
		t := field.Type()
		for i := 0; i < field.NumField(); i++ {
			if !t.Field(i).IsExported() {
				return fmt.Errorf("unexported uniform field %s.%s", t.Name(), t.Field(i).Name)
			}
			if err := readUniformsBytes(field.Field(i), buf); err != nil {
				return err
			}
		}

	case reflect.Uint32, reflect.Int32, reflect.Float32:
		if err := binary.Write(buf, binary.LittleEndian, field.Interface()); err != nil {
			return fmt.Errorf("failed to write scalar field: %w", err)
		}

	default:
		return fmt.Errorf("unsupported uniform type: %v", field.Type())
	}
	return nil
}

// HalfFloatBytes packs float32 texels as IEEE half floats for RGBA16Float
// uploads.
func HalfFloatBytes(texels []float32) []byte {
	out := make([]byte, len(texels)*2)
	for i, f := range texels {
		binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(f).Bits())
	}
	return out
}
