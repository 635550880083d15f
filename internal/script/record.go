// Package script defines the Power Query script record and the codec for
// the YAML metadata block embedded at the top of every .pq file.
package script

import "strings"

// Ext is the file extension of managed script files.
const Ext = ".pq"

// Metadata is the structured header of a script file. Name is the unique
// identifier across the whole repository; Category determines the storage
// folder; Dependencies lists the names of scripts that must be present
// before this one, in declared order.
type Metadata struct {
	Name         string
	Category     string
	Tags         []string
	Dependencies []string
	Description  string
	Version      string
}

// Record is one managed script file: its metadata, the raw M body below
// the metadata block, and its current absolute location on disk.
type Record struct {
	Metadata
	Body string
	Path string
}

// Clean normalizes a metadata string field: CR/LF become spaces and
// surrounding whitespace is trimmed, so every field serializes to a single
// well-formed header line.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// CleanList applies Clean to every element and drops the empties.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if c := Clean(it); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Normalize returns a copy of m with every field cleaned.
func (m Metadata) Normalize() Metadata {
	m.Name = Clean(m.Name)
	m.Category = Clean(m.Category)
	m.Tags = CleanList(m.Tags)
	m.Dependencies = CleanList(m.Dependencies)
	m.Description = Clean(m.Description)
	m.Version = Clean(m.Version)
	return m
}
