package domain

import (
	"encoding/json"
	"slices"

	"gopkg.in/yaml.v3"
)

// FlexStrings holds the distinct values observed for a field that is
// usually single-valued but may legitimately differ across merged
// observations, such as a node specification recorded under more than one
// executable path. It round-trips as a bare scalar while it holds a single
// value and as a sequence otherwise.
type FlexStrings []string

// Add records each value that is not already present.
func (f *FlexStrings) Add(values ...string) {
	for _, v := range values {
		if v == "" || slices.Contains(*f, v) {
			continue
		}
		*f = append(*f, v)
	}
}

// Contains reports whether v has been recorded.
func (f FlexStrings) Contains(v string) bool {
	return slices.Contains(f, v)
}

// First returns the first recorded value, or the empty string.
func (f FlexStrings) First() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// MarshalYAML emits a scalar for a single value and a sequence otherwise.
func (f FlexStrings) MarshalYAML() (any, error) {
	switch len(f) {
	case 0:
		return nil, nil
	case 1:
		return f[0], nil
	default:
		return []string(f), nil
	}
}

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (f *FlexStrings) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*f = FlexStrings{s}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*f = FlexStrings(list)
	return nil
}

// MarshalJSON mirrors the YAML shape: scalar for one value, array
// otherwise.
func (f FlexStrings) MarshalJSON() ([]byte, error) {
	switch len(f) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(f[0])
	default:
		return json.Marshal([]string(f))
	}
}

// UnmarshalJSON accepts either a string or an array of strings.
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexStrings{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*f = FlexStrings(list)
	return nil
}
