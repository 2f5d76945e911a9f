package textformat

import (
	"io"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type yamlSchema struct {
	Sections []yamlSection `yaml:"sections"`
}

type yamlSection struct {
	Name        string   `yaml:"name"`
	UniqueName  string   `yaml:"unique_name"`
	ElementName string   `yaml:"element_name"`
	Flags       []string `yaml:"flags"`
	Children    []string `yaml:"children"`
	Entries     []string `yaml:"entries"`
}

// LoadSchema reads a section table declared in YAML:
//
//	sections:
//	  - name: Root
//	    flags: [wrapper]
//	    children: [Items]
//	  - name: Items
//	    flags: [array]
//	    children: [Item]
//	  - name: Item
//	    entries: [Name, Size]
//
// Sections are numbered in the order listed; the first is the root. Children
// are referenced by unique name, or by name when a section has none.
func LoadSchema(r io.Reader) (*Schema, error) {
	var doc yamlSchema
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrInvalidSchema), "decode schema")
	}
	ids := make(map[string]SectionID, len(doc.Sections))
	for i, ys := range doc.Sections {
		key := ys.UniqueName
		if key == "" {
			key = ys.Name
		}
		ids[key] = SectionID(i)
	}
	table := make([]Section, len(doc.Sections))
	for i, ys := range doc.Sections {
		sec := Section{
			ID:          SectionID(i),
			Name:        ys.Name,
			UniqueName:  ys.UniqueName,
			ElementName: ys.ElementName,
			Entries:     ys.Entries,
		}
		for _, f := range ys.Flags {
			flag, err := parseSectionFlag(f)
			if err != nil {
				return nil, errors.Wrapf(err, "section %q", ys.Name)
			}
			sec.Flags |= flag
		}
		for _, c := range ys.Children {
			id, ok := ids[c]
			if !ok {
				return nil, errors.Wrapf(ErrInvalidSchema, "section %q references unknown child %q", ys.Name, c)
			}
			sec.Children = append(sec.Children, id)
		}
		table[i] = sec
	}
	return NewSchema(table)
}

func parseSectionFlag(s string) (SectionFlags, error) {
	for _, f := range flagNames {
		if f.name == s {
			return f.flag, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidSchema, "unknown section flag %q", s)
}
