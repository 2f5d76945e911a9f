package textformat

import (
	"slices"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// MaxDepth is the deepest section nesting a [Context] supports and the
// deepest tree a [Schema] may declare.
const MaxDepth = 10

// SectionID identifies a section within its schema. IDs are dense and double
// as indexes into the schema's table.
type SectionID int

// NoSection marks the absence of a section, e.g. the parent of the root.
const NoSection SectionID = -1

// SectionFlags describe how a section nests.
type SectionFlags uint8

const (
	// SectionWrapper sections only group other sections and have no fields of
	// their own.
	SectionWrapper SectionFlags = 1 << iota
	// SectionArray sections hold repeated elements of the same type.
	SectionArray
	// SectionVariableFields sections carry a dynamic set of keys. They must
	// declare an element name.
	SectionVariableFields
)

var flagNames = []struct {
	flag SectionFlags
	name string
}{
	{SectionWrapper, "wrapper"},
	{SectionArray, "array"},
	{SectionVariableFields, "variable_fields"},
}

// Has reports whether all bits of o are set.
func (f SectionFlags) Has(o SectionFlags) bool { return f&o == o }

// Section is a static node of the output schema.
type Section struct {
	ID    SectionID
	Name  string
	Flags SectionFlags
	// Children lists the sections that may be opened directly inside this one,
	// in declaration order.
	Children []SectionID
	// ElementName is the singular name used for elements of the section.
	ElementName string
	// UniqueName disambiguates sections sharing a Name.
	UniqueName string
	// Entries restricts which field keys are printed. Empty means all.
	Entries []string
}

// IsWrapper reports whether s only groups other sections.
func (s *Section) IsWrapper() bool { return s.Flags.Has(SectionWrapper) }

// IsArray reports whether s is an array of elements.
func (s *Section) IsArray() bool { return s.Flags.Has(SectionArray) }

// IsContainer reports whether s is a wrapper or an array.
func (s *Section) IsContainer() bool { return s.Flags&(SectionWrapper|SectionArray) != 0 }

// Element returns the element name, falling back to the section name.
func (s *Section) Element() string {
	if s.ElementName != "" {
		return s.ElementName
	}
	return s.Name
}

// Key returns the name the section is looked up by.
func (s *Section) Key() string {
	if s.UniqueName != "" {
		return s.UniqueName
	}
	return s.Name
}

// Schema is an immutable section tree rooted at ID 0. It is safe for
// concurrent use once constructed.
type Schema struct {
	sections []Section
	entries  []map[string]struct{}
	byKey    map[string]SectionID
	showAll  atomic.Bool
}

// NewSchema validates the section table and builds a schema from it. The
// table must list sections in ID order starting at 0, which is the root.
func NewSchema(table []Section) (*Schema, error) {
	if len(table) == 0 {
		return nil, errors.Wrap(ErrInvalidSchema, "no sections")
	}
	s := &Schema{
		sections: make([]Section, len(table)),
		entries:  make([]map[string]struct{}, len(table)),
		byKey:    make(map[string]SectionID, len(table)),
	}
	for i, sec := range table {
		if sec.ID != SectionID(i) {
			return nil, errors.Wrapf(ErrInvalidSchema, "section %q has id %d at index %d", sec.Name, sec.ID, i)
		}
		if sec.Name == "" {
			return nil, errors.Wrapf(ErrInvalidSchema, "section %d has no name", i)
		}
		if sec.Flags.Has(SectionVariableFields) && sec.ElementName == "" {
			return nil, errors.Wrapf(ErrInvalidSchema, "section %q has variable fields but no element name", sec.Name)
		}
		key := sec.Key()
		if prev, ok := s.byKey[key]; ok {
			return nil, errors.Wrapf(ErrInvalidSchema, "sections %d and %d are both named %q", prev, i, key)
		}
		s.byKey[key] = sec.ID
		sec.Children = slices.Clone(sec.Children)
		sec.Entries = slices.Clone(sec.Entries)
		s.sections[i] = sec
		if len(sec.Entries) > 0 {
			set := make(map[string]struct{}, len(sec.Entries))
			for _, e := range sec.Entries {
				set[e] = struct{}{}
			}
			s.entries[i] = set
		}
	}
	for _, sec := range s.sections {
		seen := make(map[SectionID]bool, len(sec.Children))
		for _, c := range sec.Children {
			if c < 0 || int(c) >= len(s.sections) {
				return nil, errors.Wrapf(ErrInvalidSchema, "section %q references unknown child %d", sec.Name, c)
			}
			if seen[c] {
				return nil, errors.Wrapf(ErrInvalidSchema, "section %q lists child %q twice", sec.Name, s.sections[c].Name)
			}
			seen[c] = true
		}
	}
	depth, err := s.depth()
	if err != nil {
		return nil, err
	}
	if depth > MaxDepth {
		return nil, errors.Wrapf(ErrInvalidSchema, "section tree is %d levels deep, limit is %d", depth, MaxDepth)
	}
	return s, nil
}

// depth returns the number of levels reachable from the root.
func (s *Schema) depth() (int, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(s.sections))
	memo := make([]int, len(s.sections))
	var visit func(id SectionID) (int, error)
	visit = func(id SectionID) (int, error) {
		switch state[id] {
		case visiting:
			return 0, errors.Wrapf(ErrInvalidSchema, "section %q is its own ancestor", s.sections[id].Name)
		case done:
			return memo[id], nil
		}
		state[id] = visiting
		deepest := 0
		for _, c := range s.sections[id].Children {
			d, err := visit(c)
			if err != nil {
				return 0, err
			}
			deepest = max(deepest, d)
		}
		state[id] = done
		memo[id] = deepest + 1
		return memo[id], nil
	}
	return visit(s.Root())
}

// Root returns the ID of the root section.
func (s *Schema) Root() SectionID { return 0 }

// Len returns the number of sections.
func (s *Schema) Len() int { return len(s.sections) }

// Lookup returns the section with the given ID.
func (s *Schema) Lookup(id SectionID) (*Section, bool) {
	if id < 0 || int(id) >= len(s.sections) {
		return nil, false
	}
	return &s.sections[id], true
}

// Section returns the section with the given ID and panics if there is none.
func (s *Schema) Section(id SectionID) *Section {
	sec, ok := s.Lookup(id)
	if !ok {
		panic(errors.AssertionFailedf("unknown section id %d", id))
	}
	return sec
}

// ByName returns the ID of the section whose unique name, or name when it has
// none, equals name.
func (s *Schema) ByName(name string) (SectionID, bool) {
	id, ok := s.byKey[name]
	if !ok {
		return NoSection, false
	}
	return id, true
}

// Children returns the IDs of the sections allowed directly inside id.
func (s *Schema) Children(id SectionID) []SectionID {
	return slices.Clone(s.Section(id).Children)
}

// HasChild reports whether child may be opened directly inside parent.
func (s *Schema) HasChild(parent, child SectionID) bool {
	sec, ok := s.Lookup(parent)
	return ok && slices.Contains(sec.Children, child)
}

// ShowAllEntries lifts every section's entry restriction. It cannot be
// undone.
func (s *Schema) ShowAllEntries() { s.showAll.Store(true) }

// ShowsEntry reports whether field key of section id is printed.
func (s *Schema) ShowsEntry(id SectionID, key string) bool {
	if s.showAll.Load() {
		return true
	}
	set := s.entries[id]
	if set == nil {
		return true
	}
	_, ok := set[key]
	return ok
}
