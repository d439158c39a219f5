// Package record encodes and decodes the two-level delimited text that
// automation scripts use to return lists of structured values.
//
// A blob is a sequence of records joined by a record separator; each record
// is a sequence of fields joined by a field separator. Field values are
// not escaped, so a value containing either separator corrupts the blob.
package record

import (
	"strings"
)

// ErrorPrefix marks a blob (or chunk) produced by a script that trapped its own failure.
const ErrorPrefix = "Error:"

// Record is one decoded row of positional fields.
type Record []string

// Field returns the i-th field, or "" when the record is shorter.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// ScriptError carries the message a script reported through the error prefix.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return "script error: " + e.Message
}

// Codec holds the separators of one wire convention.
type Codec struct {
	FieldSep  string
	RecordSep string
}

// Default is the "|" / ";" convention used by every bundled script.
var Default = Codec{FieldSep: "|", RecordSep: ";"}

// Encode joins fields with FieldSep and records with RecordSep.
func (c Codec) Encode(records []Record) string {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, strings.Join(r, c.FieldSep))
	}
	return strings.Join(parts, c.RecordSep)
}

// Decode splits blob into records of however many fields each chunk carries.
// Empty chunks and chunks without a field separator are dropped. A chunk
// starting with ErrorPrefix aborts decoding with a *ScriptError.
func (c Codec) Decode(blob string) ([]Record, error) {
	return c.decode(blob, -1)
}

// DecodeN is Decode for fixed-shape records: each chunk is split into at
// most n fields, the last field keeping any further field separators, and
// chunks yielding fewer than n fields are dropped.
func (c Codec) DecodeN(blob string, n int) ([]Record, error) {
	return c.decode(blob, n)
}

func (c Codec) decode(blob string, n int) ([]Record, error) {
	if strings.HasPrefix(strings.TrimSpace(blob), ErrorPrefix) {
		return nil, scriptError(strings.TrimSpace(blob))
	}

	var out []Record
	offset := 0
	for _, chunk := range strings.Split(blob, c.RecordSep) {
		start := offset
		offset += len(chunk) + len(c.RecordSep)

		trimmed := strings.TrimSpace(chunk)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ErrorPrefix) {
			return nil, scriptError(strings.TrimSpace(blob[start:]))
		}
		if !strings.Contains(chunk, c.FieldSep) {
			continue
		}

		var fields []string
		if n > 0 {
			fields = strings.SplitN(chunk, c.FieldSep, n)
			if len(fields) < n {
				continue
			}
		} else {
			fields = strings.Split(chunk, c.FieldSep)
		}
		out = append(out, Record(fields))
	}
	return out, nil
}

func scriptError(s string) *ScriptError {
	return &ScriptError{Message: strings.TrimSpace(strings.TrimPrefix(s, ErrorPrefix))}
}
