package script

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MalformedError reports a script file whose metadata block is absent,
// unterminated, or fails structural validation. It is local to one file:
// batch operations skip the file and report it, they do not abort.
type MalformedError struct {
	Path   string // empty when parsing from memory
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Path == "" {
		return "malformed metadata: " + e.Reason
	}
	return fmt.Sprintf("malformed metadata in %s: %s", e.Path, e.Reason)
}

// header mirrors the YAML metadata block. Fields are decoded as yaml.Node
// so structural mistakes (scalar tags, list version) are reported precisely
// and numeric versions keep their literal text.
type header struct {
	Name         yaml.Node `yaml:"name"`
	Category     yaml.Node `yaml:"category"`
	Tags         yaml.Node `yaml:"tags"`
	Dependencies yaml.Node `yaml:"dependencies"`
	Description  yaml.Node `yaml:"description"`
	Version      yaml.Node `yaml:"version"`
}

// Parse decodes the content of a script file into its metadata and body.
// The metadata block is delimited by "---" lines at the top of the file;
// the body is everything after the closing delimiter, minus one blank
// separator line. Parse is a pure transform and never touches the disk.
func Parse(raw []byte) (Metadata, string, error) {
	text := strings.TrimPrefix(string(raw), "﻿")

	first, rest, found := strings.Cut(text, "\n")
	if strings.TrimRight(first, "\r") != "---" {
		return Metadata{}, "", &MalformedError{Reason: "missing metadata block"}
	}
	if !found {
		rest = ""
	}

	head, body, ok := splitHeader(rest)
	if !ok {
		return Metadata{}, "", &MalformedError{Reason: "unterminated metadata block"}
	}

	var h header
	if err := yaml.Unmarshal([]byte(head), &h); err != nil {
		return Metadata{}, "", &MalformedError{Reason: "invalid YAML: " + err.Error()}
	}

	var meta Metadata
	var err error
	if meta.Name, err = scalarField(h.Name, "name"); err != nil {
		return Metadata{}, "", &MalformedError{Reason: err.Error()}
	}
	if meta.Category, err = scalarField(h.Category, "category"); err != nil {
		return Metadata{}, "", &MalformedError{Reason: err.Error()}
	}
	if meta.Tags, err = listField(h.Tags, "tags"); err != nil {
		return Metadata{}, "", &MalformedError{Reason: err.Error()}
	}
	if meta.Dependencies, err = listField(h.Dependencies, "dependencies"); err != nil {
		return Metadata{}, "", &MalformedError{Reason: err.Error()}
	}
	if meta.Description, err = scalarField(h.Description, "description"); err != nil {
		return Metadata{}, "", &MalformedError{Reason: err.Error()}
	}
	if meta.Version, err = scalarField(h.Version, "version"); err != nil {
		return Metadata{}, "", &MalformedError{Reason: err.Error()}
	}

	meta = meta.Normalize()
	if meta.Name == "" {
		return Metadata{}, "", &MalformedError{Reason: "missing required field: name"}
	}
	return meta, body, nil
}

// splitHeader scans rest line by line for the closing "---" delimiter and
// returns the YAML header text and the body after it. One blank separator
// line following the delimiter is consumed; further leading newlines belong
// to the body, so bodies survive a serialize/parse round trip unchanged.
func splitHeader(rest string) (head, body string, ok bool) {
	off := 0
	for off <= len(rest) {
		var line string
		next := len(rest) + 1
		if nl := strings.Index(rest[off:], "\n"); nl >= 0 {
			line = rest[off : off+nl]
			next = off + nl + 1
		} else {
			line = rest[off:]
		}
		if strings.TrimRight(line, "\r") == "---" {
			head = rest[:off]
			if next <= len(rest) {
				body = rest[next:]
			}
			if strings.HasPrefix(body, "\r\n") {
				body = body[2:]
			} else if strings.HasPrefix(body, "\n") {
				body = body[1:]
			}
			return head, body, true
		}
		off = next
	}
	return "", "", false
}

func scalarField(n yaml.Node, field string) (string, error) {
	switch n.Kind {
	case 0:
		return "", nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "", nil
		}
		return n.Value, nil
	default:
		return "", fmt.Errorf("%s must be a scalar", field)
	}
}

func listField(n yaml.Node, field string) ([]string, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return nil, fmt.Errorf("%s must be a list", field)
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%s must be a list of strings", field)
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a list", field)
	}
}

// Format renders a record's file content: the YAML metadata block, a blank
// separator line, then the body. Field order is fixed and list fields use
// flow style, so formatting is deterministic. Format is the left inverse of
// Parse for any metadata in normalized form.
func Format(meta Metadata, body string) []byte {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, val *yaml.Node) {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key}, val)
	}
	add("name", scalarNode(meta.Name))
	add("category", scalarNode(meta.Category))
	add("tags", listNode(meta.Tags))
	add("dependencies", listNode(meta.Dependencies))
	add("description", scalarNode(meta.Description))
	add("version", scalarNode(meta.Version))

	// A tree of string scalars and flow sequences cannot fail to marshal.
	out, _ := yaml.Marshal(doc)

	var b strings.Builder
	b.Grow(len(out) + len(body) + 16)
	b.WriteString("---\n")
	b.Write(out)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return []byte(b.String())
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func listNode(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, it := range items {
		n.Content = append(n.Content, scalarNode(it))
	}
	return n
}

// ParseFile reads and parses the script file at path.
func ParseFile(path string) (Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("cannot read script %s: %w", path, err)
	}
	meta, body, err := Parse(raw)
	if err != nil {
		var me *MalformedError
		if errors.As(err, &me) {
			me.Path = path
		}
		return Record{}, err
	}
	return Record{Metadata: meta, Body: body, Path: path}, nil
}
