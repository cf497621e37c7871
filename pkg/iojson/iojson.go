// Package iojson reads and writes JSON for command line output. Output
// never escapes HTML characters so shell commands such as `a && b > out`
// print the way they were written.
package iojson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

func encode(obj any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWith writes obj as indented JSON to w. When obj cannot be encoded
// nothing is written to w; a JSON error object goes to ew instead.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := encode(obj, true)
	if err != nil {
		_, werr := fmt.Fprintln(ew, marshalFailure(err))
		return werr
	}

	_, err = w.Write(bits)
	return err
}

// WriteLines writes each item as one compact JSON line.
func WriteLines[T any](w io.Writer, items []T) error {
	for i, item := range items {
		bits, err := encode(item, false)
		if err != nil {
			return fmt.Errorf("encode line %d: %w", i, err)
		}
		if _, err := w.Write(bits); err != nil {
			return err
		}
	}
	return nil
}

func marshalFailure(err error) string {
	bits, _ := json.Marshal(map[string]any{
		"message": "cannot encode output",
		"data":    map[string]string{"json_error": err.Error()},
	})
	return string(bits)
}
