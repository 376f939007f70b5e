package loganalytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// encodeRecords serializes validated records as a JSON array. Nil fields are omitted.
func encodeRecords(records [][]recordField) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, fields := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeRecord(&buf, fields); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func encodeRecord(buf *bytes.Buffer, fields []recordField) error {
	buf.WriteByte('{')
	first := true
	for _, f := range fields {
		if omitField(f) {
			continue
		}
		key, err := json.Marshal(f.name)
		if err != nil {
			return fmt.Errorf("failed to encode field name %q: %w", f.name, err)
		}
		value, err := json.Marshal(f.value.Interface())
		if err != nil {
			return fmt.Errorf("failed to encode field %q: %w", f.name, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return nil
}

func omitField(f recordField) bool {
	if !f.value.IsValid() {
		return true
	}
	if f.value.Kind() == reflect.Pointer && f.value.IsNil() {
		return true
	}
	// omitempty follows encoding/json and never drops struct values.
	return f.omitEmpty && f.value.Kind() != reflect.Struct && f.value.Kind() != reflect.Array && f.value.IsZero()
}
