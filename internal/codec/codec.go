// Package codec persists and restores the snapshot model. Every bank is
// written to its own file named "<base>_<bank output name>.<ext>", so a
// model saved under one base name never collides with another run saved
// into the same directory. YAML and JSON round-trip; the human-readable
// text dump and the DOT computation graph are export-only.
package codec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"graphsnap/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Codec encodes and decodes one persisted bank document.
type Codec interface {
	// Format returns the codec format identifier.
	Format() string
	// Extension returns the file name extension including the dot.
	Extension() string
	// Encode writes one bank document.
	Encode(w io.Writer, doc any) error
	// Decode reads one bank document.
	Decode(r io.Reader, doc any) error
}

// bankDocument is the on-disk shape of one bank: the kind tag plus the
// name-to-entity map.
type bankDocument[E domain.Entity] struct {
	Bank  domain.BankKind `yaml:"bank" json:"bank"`
	Items map[string]E    `yaml:"entities" json:"entities"`
}

// bankSlot adapts one typed bank of a model to the untyped operations the
// persistence loops need.
type bankSlot struct {
	kind   domain.BankKind
	title  string
	encode func(c Codec, w io.Writer) error
	decode func(c Codec, r io.Reader) error
	items  func() map[string]any
}

func slotFor[E domain.Entity](b *domain.Bank[E], title string) bankSlot {
	return bankSlot{
		kind:  b.Kind(),
		title: title,
		encode: func(c Codec, w io.Writer) error {
			return c.Encode(w, bankDocument[E]{Bank: b.Kind(), Items: b.Items()})
		},
		decode: func(c Codec, r io.Reader) error {
			doc := bankDocument[E]{Items: make(map[string]E)}
			if err := c.Decode(r, &doc); err != nil {
				return err
			}
			b.SetItems(doc.Items)
			return nil
		},
		items: func() map[string]any {
			out := make(map[string]any, b.Len())
			for name, e := range b.Items() {
				out[name] = e
			}
			return out
		},
	}
}

// modelSlots lists every bank of m in presentation order, deployment
// banks first.
func modelSlots(m *domain.Model) []bankSlot {
	return []bankSlot{
		slotFor(m.Nodes, "Nodes:"),
		slotFor(m.Topics, "Topics:"),
		slotFor(m.Actions, "Actions:"),
		slotFor(m.Services, "Services:"),
		slotFor(m.Parameters, "Parameters:"),
		slotFor(m.Machines, "Machines:"),
		slotFor(m.PackageSpecifications, "PackageSpecifications:"),
		slotFor(m.NodeSpecifications, "NodeSpecs:"),
		slotFor(m.MessageSpecifications, "TypeSpecifications:"),
		slotFor(m.ServiceSpecifications, "TypeSpecifications:"),
		slotFor(m.ActionSpecifications, "TypeSpecifications:"),
	}
}

func specificationKind(kind domain.BankKind) bool {
	for _, k := range domain.SpecificationBankKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// BankSet selects which banks of a model a save or load touches. The
// deployment and specification halves of a model live in the same
// directory under the same base name, so a deployment save must not
// rewrite the specification files and vice versa.
type BankSet int

const (
	// AllBanks covers the deployment and specification banks alike.
	AllBanks BankSet = iota
	// DeploymentBanks covers nodes, topics, actions, services,
	// parameters, and machines.
	DeploymentBanks
	// SpecificationBanks covers the five specification banks.
	SpecificationBanks
)

func (s BankSet) includes(kind domain.BankKind) bool {
	switch s {
	case DeploymentBanks:
		return !specificationKind(kind)
	case SpecificationBanks:
		return specificationKind(kind)
	default:
		return true
	}
}

// bankFileName returns the file name one bank is persisted under.
func bankFileName(base string, kind domain.BankKind, ext string) string {
	return base + "_" + kind.OutputName() + ext
}

// SaveModel writes the selected banks of m into dir, one file per bank,
// creating dir if needed.
func SaveModel(c Codec, m *domain.Model, dir, base string, set BankSet) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	log.WithFields(log.Fields{
		"format": c.Format(),
		"dir":    dir,
	}).Info("saving model banks")

	for _, slot := range modelSlots(m) {
		if !set.includes(slot.kind) {
			continue
		}
		path := filepath.Join(dir, bankFileName(base, slot.kind, c.Extension()))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create bank file %s: %w", path, err)
		}
		err = slot.encode(c, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", slot.kind.OutputName(), err)
		}
	}
	return nil
}

// ReadModel loads the selected banks of a model from dir. A bank file
// that is missing or unreadable yields an empty bank of the right kind;
// the load keeps going so one corrupt file never discards the rest of
// the model.
func ReadModel(c Codec, dir, base string, set BankSet) *domain.Model {
	m := domain.NewModel()
	for _, slot := range modelSlots(m) {
		if !set.includes(slot.kind) {
			continue
		}
		path := filepath.Join(dir, bankFileName(base, slot.kind, c.Extension()))
		f, err := os.Open(path)
		if err != nil {
			log.WithFields(log.Fields{
				"bank": slot.kind.OutputName(),
				"path": path,
			}).Error("failed to read bank file")
			continue
		}
		if err := slot.decode(c, f); err != nil {
			log.WithFields(log.Fields{
				"bank": slot.kind.OutputName(),
				"path": path,
			}).WithError(err).Error("failed to decode bank file")
		}
		f.Close()
	}
	return m
}

// LoadModel detects the persisted format in dir and loads the selected
// banks of the model from it.
func LoadModel(dir string, set BankSet) (*domain.Model, error) {
	c, base, err := DetectInput(dir)
	if err != nil {
		return nil, err
	}
	return ReadModel(c, dir, base, set), nil
}

// DetectInput scans dir for persisted bank files and reports the codec
// and base name they were saved under.
func DetectInput(dir string) (Codec, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read input directory: %w", err)
	}
	codecs := []Codec{NewYAMLCodec(), NewJSONCodec()}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, c := range codecs {
			for _, kind := range domain.AllBankKinds {
				suffix := "_" + kind.OutputName() + c.Extension()
				if strings.HasSuffix(name, suffix) {
					return c, strings.TrimSuffix(name, suffix), nil
				}
			}
		}
	}
	return nil, "", fmt.Errorf("failed to determine input file type for %s", dir)
}
