package index

import (
	"fmt"
	"strings"
)

// DuplicateError reports two files claiming the same script name.
// Name comparison is case-insensitive, so the claimed spellings may
// differ from Name.
type DuplicateError struct {
	Name  string
	Paths []string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate script name %q claimed by %s", e.Name, strings.Join(e.Paths, " and "))
}

// CorruptError reports a snapshot line that cannot be decoded.
type CorruptError struct {
	Path string
	Line int
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt index %s: line %d: %v", e.Path, e.Line, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }
