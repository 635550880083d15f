package index

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pqhub/pqhub-cli/internal/fsx"
)

// readSnapshot loads entries from path. A missing file is an empty
// index, not an error.
func readSnapshot(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot open index %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, &CorruptError{Path: path, Line: line, Err: err}
		}
		if e.Name == "" || e.Path == "" {
			return nil, &CorruptError{Path: path, Line: line, Err: errors.New("entry missing name or path")}
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cannot read index %s: %w", path, err)
	}
	return entries, nil
}

// writeSnapshot replaces the snapshot at path in one atomic rename.
func writeSnapshot(path string, entries []Entry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("cannot encode index entry %s: %w", e.Name, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	if err := fsx.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("cannot write index %s: %w", path, err)
	}
	return nil
}
