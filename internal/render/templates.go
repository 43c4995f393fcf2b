package render

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// Set is a collection of templates addressed by key.
type Set map[string]Template

// LoadTemplates reads a YAML file of the form:
//
//	templates:
//	  - key: cafes
//	    title: "Cafes in {{place_name}}"
//	    slug: "cafes-in-{{place_name}}"
func LoadTemplates(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "render: read %s", path)
	}
	return ParseTemplates(data)
}

// ParseTemplates decodes a template file. Keys must be present and unique.
func ParseTemplates(data []byte) (Set, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "render: parse templates")
	}
	set := make(Set, len(f.Templates))
	for i, t := range f.Templates {
		if t.Key == "" {
			return nil, eris.Errorf("render: template %d has no key", i)
		}
		if _, dup := set[t.Key]; dup {
			return nil, eris.Errorf("render: duplicate template key %q", t.Key)
		}
		set[t.Key] = t
	}
	return set, nil
}
