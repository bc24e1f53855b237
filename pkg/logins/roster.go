package logins

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type roster struct {
	Students []StudentInput `yaml:"students"`
}

// LoadRoster reads the students for BulkCreateStudents from a YAML or JSON
// file. The file holds either a bare list or a mapping with a "students" list.
func LoadRoster(path string) ([]StudentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return ParseRoster(data)
}

func ParseRoster(data []byte) ([]StudentInput, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var list []StudentInput
	switch doc := node.Content[0]; doc.Kind {
	case yaml.SequenceNode:
		err := doc.Decode(&list)
		if err != nil {
			return nil, fmt.Errorf("failed to parse roster: %w", err)
		}
	case yaml.MappingNode:
		var r roster
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("failed to parse roster: %w", err)
		}
		list = r.Students
	default:
		return nil, fmt.Errorf("failed to parse roster: expected a list of students")
	}
	return list, nil
}
