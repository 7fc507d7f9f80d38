package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// TextFormatter renders entries as human-readable single lines:
//
//	2025-01-01T00:00:00.000Z INFO [receipts] appended receipt trace_id=trace-x
type TextFormatter struct{}

// Format implements Formatter.
func (f *TextFormatter) Format(e *Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(e.Timestamp.Format(timeLayout))
	buf.WriteByte(' ')
	buf.WriteString(e.Level.String())
	component := ""
	rest := make([]Field, 0, len(e.Fields))
	for _, fld := range e.Fields {
		if fld.Key == "component" {
			if s, ok := fld.Value.(string); ok {
				component = s
				continue
			}
		}
		rest = append(rest, fld)
	}
	if component != "" {
		fmt.Fprintf(&buf, " [%s]", component)
	}
	buf.WriteByte(' ')
	buf.WriteString(e.Message)
	for _, fld := range rest {
		fmt.Fprintf(&buf, " %s=%v", fld.Key, fld.Value)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// JSONFormatter renders entries as compact JSON objects, one per line.
type JSONFormatter struct{}

// Format implements Formatter.
func (f *JSONFormatter) Format(e *Entry) ([]byte, error) {
	obj := map[string]any{
		"ts":    e.Timestamp.Format(time.RFC3339Nano),
		"level": e.Level.String(),
		"msg":   e.Message,
	}
	for _, fld := range e.Fields {
		obj[fld.Key] = fld.Value
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
