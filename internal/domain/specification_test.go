package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNodeSpecificationMerge(t *testing.T) {
	t.Run("token maps union with incoming precedence", func(t *testing.T) {
		spec := NewNodeSpecification("/pkg/talker")
		spec.Parameters = map[string]string{"rate": "integer"}

		spec.Merge(&NodeSpecification{
			Parameters:      map[string]string{"rate": "double", "frame": "string"},
			PublishedTopics: map[string]string{"out": "std_msgs/msg/String"},
		})

		if spec.Parameters["rate"] != "double" {
			t.Errorf("expected incoming type to win, got %s", spec.Parameters["rate"])
		}
		if spec.Parameters["frame"] != "string" {
			t.Errorf("expected new token recorded, got %v", spec.Parameters)
		}
		if spec.PublishedTopics["out"] != "std_msgs/msg/String" {
			t.Errorf("expected published topic recorded, got %v", spec.PublishedTopics)
		}
	})

	t.Run("validated latches on", func(t *testing.T) {
		spec := NewNodeSpecification("/pkg/talker")
		spec.Merge(&NodeSpecification{Validated: true})
		spec.Merge(&NodeSpecification{})

		if !spec.Validated {
			t.Error("expected validated flag to stay set")
		}
	})

	t.Run("file paths accumulate distinct values", func(t *testing.T) {
		spec := NewNodeSpecification("/pkg/talker")
		spec.FilePath.Add("/opt/pkg/lib/pkg/talker")
		spec.Merge(&NodeSpecification{FilePath: FlexStrings{"/ws/install/pkg/lib/pkg/talker", "/opt/pkg/lib/pkg/talker"}})

		if len(spec.FilePath) != 2 {
			t.Errorf("expected 2 distinct paths, got %v", spec.FilePath)
		}
	})
}

func TestFlexStringsRoundTrip(t *testing.T) {
	t.Run("single value marshals as scalar", func(t *testing.T) {
		out, err := yaml.Marshal(FlexStrings{"/one/path"})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if strings.Contains(string(out), "-") {
			t.Errorf("expected scalar output, got %q", string(out))
		}
	})

	t.Run("multiple values marshal as sequence", func(t *testing.T) {
		out, err := yaml.Marshal(FlexStrings{"/a", "/b"})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var back FlexStrings
		if err := yaml.Unmarshal(out, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if len(back) != 2 || back[0] != "/a" || back[1] != "/b" {
			t.Errorf("expected round trip to preserve values, got %v", back)
		}
	})

	t.Run("scalar yaml input decodes into one value", func(t *testing.T) {
		var f FlexStrings
		if err := yaml.Unmarshal([]byte(`/lone/path`), &f); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if len(f) != 1 || f[0] != "/lone/path" {
			t.Errorf("expected single value, got %v", f)
		}
	})

	t.Run("json mirrors the same shape", func(t *testing.T) {
		out, err := json.Marshal(FlexStrings{"/only"})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(out) != `"/only"` {
			t.Errorf("expected scalar json, got %s", string(out))
		}

		var f FlexStrings
		if err := json.Unmarshal([]byte(`["/a","/b"]`), &f); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if len(f) != 2 {
			t.Errorf("expected 2 values, got %v", f)
		}
	})

	t.Run("add ignores duplicates and empties", func(t *testing.T) {
		var f FlexStrings
		f.Add("/a", "", "/a", "/b")
		if len(f) != 2 {
			t.Errorf("expected 2 values, got %v", f)
		}
	})
}
