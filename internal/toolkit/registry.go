package toolkit

import (
	"path/filepath"
	"slices"
)

// Registry maps boot image types to their tool pairs. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	root       string
	tools      map[string]ToolEntry
	order      []string // reverse lexicographic
	overridden []ToolEntry
}

// newRegistry resolves tool paths and indexes entries by type. A type declared
// more than once keeps the last declaration; earlier ones are recorded in
// overridden.
func newRegistry(root string, decls []toolDoc) *Registry {
	r := &Registry{
		root:  filepath.Clean(root),
		tools: make(map[string]ToolEntry, len(decls)),
	}

	for _, d := range decls {
		entry := ToolEntry{
			Type:   d.Type,
			Unpack: r.resolve(d.Unpack),
			Pack:   r.resolve(d.Pack),
		}
		if prev, ok := r.tools[d.Type]; ok {
			r.overridden = append(r.overridden, prev)
		}
		r.tools[d.Type] = entry
	}

	r.order = make([]string, 0, len(r.tools))
	for typ := range r.tools {
		r.order = append(r.order, typ)
	}
	slices.Sort(r.order)
	slices.Reverse(r.order)

	return r
}

func (r *Registry) resolve(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(r.root, p)
}

// Get returns the tool pair registered for typ.
func (r *Registry) Get(typ string) (ToolEntry, error) {
	entry, ok := r.tools[typ]
	if !ok {
		return ToolEntry{}, &NotFoundError{Type: typ}
	}
	return entry, nil
}

// ListTypesDescending returns every registered type in reverse lexicographic
// (byte-wise) order. This is the probe priority used for detection: longer or
// versioned identifiers sharing a prefix sort before their shorter forms.
// The order is a heuristic, not a guarantee that the first match is correct.
func (r *Registry) ListTypesDescending() []string {
	return slices.Clone(r.order)
}

// Entries returns all tool pairs in probe order.
func (r *Registry) Entries() []ToolEntry {
	entries := make([]ToolEntry, 0, len(r.order))
	for _, typ := range r.order {
		entries = append(entries, r.tools[typ])
	}
	return entries
}

// Overridden returns the declarations replaced by a later entry with the same
// type, in document order.
func (r *Registry) Overridden() []ToolEntry {
	return slices.Clone(r.overridden)
}

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.tools) }

// ToolsRoot returns the directory relative tool paths were resolved against.
func (r *Registry) ToolsRoot() string { return r.root }
