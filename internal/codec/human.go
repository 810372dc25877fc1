package codec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"graphsnap/internal/domain"

	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v3"
)

// TextCodec renders banks as an indented human-readable report, one file
// per bank. It is export-only.
type TextCodec struct{}

// NewTextCodec creates a new human-readable text codec.
func NewTextCodec() *TextCodec {
	return &TextCodec{}
}

// Format returns the codec format identifier.
func (c *TextCodec) Format() string {
	return "text"
}

// Extension returns the file name extension.
func (c *TextCodec) Extension() string {
	return ".txt"
}

// SaveModelText writes the human-readable report of the selected banks
// of m into dir, one file per bank, creating dir if needed.
func SaveModelText(m *domain.Model, dir, base string, set BankSet) error {
	c := NewTextCodec()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	log.WithField("dir", dir).Info("saving human-readable model report")

	for _, slot := range modelSlots(m) {
		if !set.includes(slot.kind) {
			continue
		}
		path := filepath.Join(dir, bankFileName(base, slot.kind, c.Extension()))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report file %s: %w", path, err)
		}
		err = writeBankText(f, slot)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to save %s report: %w", slot.kind.OutputName(), err)
		}
	}
	return nil
}

// writeBankText renders one bank: a title with an underline, then every
// entity in name order.
func writeBankText(w io.Writer, slot bankSlot) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", slot.title, strings.Repeat("=", len(slot.title))); err != nil {
		return err
	}
	items := slot.items()
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeEntityText(w, name, items[name]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// writeEntityText renders one entity as attribute rows. Identity fields
// lead; the rest follow in sorted order, with list and map values broken
// out one item per row.
func writeEntityText(w io.Writer, name string, entity any) error {
	fields, err := entityFields(entity)
	if err != nil {
		return err
	}
	rows := []string{"  " + strings.Repeat("=", len(name)+9)}
	for _, key := range []string{"name", "source", "version"} {
		value, ok := fields[key]
		if !ok {
			value = ""
		}
		rows = append(rows, fmt.Sprintf("        %s : %v", key, value))
		delete(fields, key)
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		switch value := fields[key].(type) {
		case map[string]any:
			rows = append(rows, fmt.Sprintf("        %s :", key))
			subKeys := make([]string, 0, len(value))
			for subKey := range value {
				subKeys = append(subKeys, subKey)
			}
			sort.Strings(subKeys)
			for _, subKey := range subKeys {
				rows = append(rows, fmt.Sprintf("            - %s : %v", subKey, value[subKey]))
			}
		case []any:
			rows = append(rows, fmt.Sprintf("        %s :", key))
			entries := make([]string, 0, len(value))
			for _, item := range value {
				entries = append(entries, fmt.Sprint(item))
			}
			sort.Strings(entries)
			for _, entry := range entries {
				rows = append(rows, "            - "+entry)
			}
		default:
			rows = append(rows, fmt.Sprintf("        %s : %v", key, value))
		}
	}
	_, err = io.WriteString(w, strings.Join(rows, "\n")+"\n")
	return err
}

// entityFields flattens an entity to its persisted attribute map by
// round-tripping it through the YAML codec, so the report shows the same
// keys the saved files do.
func entityFields(entity any) (map[string]any, error) {
	raw, err := yaml.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to flatten entity: %w", err)
	}
	fields := make(map[string]any)
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten entity: %w", err)
	}
	return fields, nil
}
