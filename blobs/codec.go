package blobs

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/eazure-dev/eazure/frame"
)

// ErrUnsupportedExtension indicates no codec is registered for the blob
// name's file extension.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

func init() {
	// Concrete types that may travel through a .gob blob as `any`.
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register([]map[string]any{})
	gob.Register([]string{})
	gob.Register("")
	gob.Register(0)
	gob.Register(0.0)
	gob.Register(false)
}

// extOf returns the lower-cased file extension of a blob name.
func extOf(name string) string {
	return strings.ToLower(path.Ext(name))
}

// decode converts raw blob bytes into a Go object based on the blob name's
// extension: .csv -> *frame.Frame, .txt -> string, .json -> *frame.Frame for
// a records-shaped array or the generic value otherwise, .gob -> any
// (registered concrete types).
func decode(name string, data []byte) (any, error) {
	switch ext := extOf(name); ext {
	case ".txt":
		return string(data), nil
	case ".json":
		var obj any
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		// A non-empty array of objects is the records encoding WriteJSON
		// produces for frames; decode it back as one so a .json blob this
		// client wrote round-trips through ReadFrame, Append and Filter.
		if records, ok := obj.([]any); ok && len(records) > 0 {
			tabular := true
			for _, r := range records {
				if _, ok := r.(map[string]any); !ok {
					tabular = false
					break
				}
			}
			if tabular {
				f, err := frame.ReadJSON(bytes.NewReader(data))
				if err != nil {
					return nil, fmt.Errorf("decode %s: %w", name, err)
				}
				return f, nil
			}
		}
		return obj, nil
	case ".csv":
		f, err := frame.ReadCSV(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return f, nil
	case ".gob":
		var obj any
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&obj); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
}

// encode converts an object into blob bytes based on the blob name's
// extension. Frames encode to .csv or .json; any other object encodes to
// .txt (strings), .json, or .gob.
func encode(name string, obj any) ([]byte, error) {
	var buf bytes.Buffer
	ext := extOf(name)

	if f, ok := obj.(*frame.Frame); ok {
		switch ext {
		case ".csv":
			if err := f.WriteCSV(&buf); err != nil {
				return nil, fmt.Errorf("encode %s: %w", name, err)
			}
		case ".json":
			if err := f.WriteJSON(&buf); err != nil {
				return nil, fmt.Errorf("encode %s: %w", name, err)
			}
		default:
			return nil, fmt.Errorf("%w for frames: %q", ErrUnsupportedExtension, ext)
		}
		return buf.Bytes(), nil
	}

	switch ext {
	case ".txt":
		s, ok := obj.(string)
		if !ok {
			return nil, fmt.Errorf("encode %s: .txt requires a string, got %T", name, obj)
		}
		buf.WriteString(s)
	case ".json":
		data, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		buf.Write(data)
	case ".gob":
		if err := gob.NewEncoder(&buf).Encode(&obj); err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	return buf.Bytes(), nil
}
