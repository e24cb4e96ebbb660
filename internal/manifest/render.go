package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Marker starts a comment that runs to the end of the line.
const Marker = "//"

const header = Marker + " Edit the repository parameters below, then save and close the editor.\n" +
	Marker + " Closing without saving aborts. Text after " + Marker + " is ignored.\n"

type field struct {
	index int
	key   string
	doc   string
}

var recordFields = fieldsOf(reflect.TypeOf(Record{}))

func fieldsOf(t reflect.Type) []field {
	fields := make([]field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if key == "" || key == "-" {
			continue
		}
		fields = append(fields, field{index: i, key: key, doc: f.Tag.Get("doc")})
	}
	return fields
}

// Render produces the editable document for r: one key/value pair per line,
// each followed by a comment describing the field.
func Render(r Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString("{\n")

	v := reflect.ValueOf(r)
	for i, f := range recordFields {
		key, err := encodeValue(f.key)
		if err != nil {
			return nil, err
		}
		val, err := encodeValue(v.Field(f.index).Interface())
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.key, err)
		}
		sep := ","
		if i == len(recordFields)-1 {
			sep = ""
		}
		fmt.Fprintf(&buf, "  %s: %s%s", key, val, sep)
		if f.doc != "" {
			fmt.Fprintf(&buf, " %s %s", Marker, f.doc)
		}
		buf.WriteByte('\n')
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// encodeValue marshals v as single-line JSON without HTML escaping.
func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
