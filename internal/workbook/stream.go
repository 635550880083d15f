package workbook

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// StreamSink writes queries as one load-ordered script stream, each
// section headed by a comment naming the query it came from.
type StreamSink struct {
	W io.Writer
	// Descriptions, when set, adds a second comment line per query.
	Descriptions map[string]string
}

// Insert appends one query section to the stream.
func (s StreamSink) Insert(_ context.Context, q Query) error {
	var sb strings.Builder
	sb.WriteString("// ")
	sb.WriteString(q.Name)
	sb.WriteByte('\n')
	if desc := s.Descriptions[q.Name]; desc != "" {
		sb.WriteString("// ")
		sb.WriteString(desc)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(strings.TrimRight(q.Body, "\n"))
	sb.WriteString("\n\n")
	if _, err := io.WriteString(s.W, sb.String()); err != nil {
		return fmt.Errorf("cannot write query %s: %w", q.Name, err)
	}
	return nil
}
