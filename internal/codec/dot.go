package codec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"graphsnap/internal/domain"

	log "github.com/sirupsen/logrus"
)

// WriteDOTFile renders the computation graph of m as Graphviz DOT source
// named "<base>.dot" in dir, creating dir if needed. The file feeds the
// dot tool directly; no renderer is invoked.
func WriteDOTFile(m *domain.Model, dir, base string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, base+".dot")
	log.WithField("path", path).Info("saving computation graph")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file %s: %w", path, err)
	}
	err = WriteDOT(m, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to save computation graph: %w", err)
	}
	return nil
}

// WriteDOT renders the deployment banks of m as a directed graph: nodes
// in blue, topics as red rectangles with publish and subscribe edges, and
// actions as purple rectangles with heavyweight client and server edges.
func WriteDOT(m *domain.Model, w io.Writer) error {
	var b strings.Builder
	b.WriteString("// ROS Computation Graph\n")
	b.WriteString("digraph {\n")
	b.WriteString("\tgraph [concentrate=true]\n")

	for _, name := range m.Nodes.Names() {
		node := m.Nodes.Get(name)
		id := "node-" + name
		if node.Variant == domain.NodeVariantComponentManager {
			id = "component_node-" + name
		}
		fmt.Fprintf(&b, "\t%s [label=%s color=\"blue\"]\n", dotQuote(id), dotQuote(name))
	}

	for _, name := range m.Topics.Names() {
		topic := m.Topics.Get(name)
		id := "topic-" + name
		fmt.Fprintf(&b, "\t%s [label=%s shape=\"rectangle\" color=\"red\"]\n", dotQuote(id), dotQuote(name))
		for _, publisher := range sortedCopy(topic.PublisherNodeNames) {
			fmt.Fprintf(&b, "\t%s -> %s\n", dotQuote("node-"+publisher), dotQuote(id))
		}
		for _, subscriber := range sortedCopy(topic.SubscriberNodeNames) {
			fmt.Fprintf(&b, "\t%s -> %s\n", dotQuote(id), dotQuote("node-"+subscriber))
		}
	}

	const actionEdgeAttrs = "[arrowhead=\"vee\" arrowsize=\"2\" weight=\"1\" penwidth=\"3\" color=\"purple\"]"
	for _, name := range m.Actions.Names() {
		action := m.Actions.Get(name)
		id := "action-" + name
		fmt.Fprintf(&b, "\t%s [label=%s shape=\"rectangle\" color=\"purple\"]\n", dotQuote(id), actionLabel(name))
		for _, client := range sortedCopy(action.ClientNodeNames) {
			fmt.Fprintf(&b, "\t%s -> %s %s\n", dotQuote("node-"+client), dotQuote(id), actionEdgeAttrs)
		}
		for _, server := range sortedCopy(action.ServerNodeNames) {
			fmt.Fprintf(&b, "\t%s -> %s %s\n", dotQuote(id), dotQuote("node-"+server), actionEdgeAttrs)
		}
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// actionLabel builds the HTML-like DOT label shown for an action node.
func actionLabel(name string) string {
	rows := []string{
		"<",
		`<TABLE BORDER="0" CELLBORDER="0">`,
		fmt.Sprintf("<TR><TD>%s</TD></TR>", name),
		"<TR><TD>",
		`<FONT POINT-SIZE="6">`,
		`<TABLE CELLBORDER="0" CELLPADDING="0" BGCOLOR="GRAY" COLOR="BLACK">`,
		"<TR><TD><U>action topics:</U></TD></TR>",
		"</TABLE>",
		"</FONT>",
		"</TD></TR>",
		"</TABLE>",
		">",
	}
	return strings.Join(rows, "\n")
}

func dotQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func sortedCopy(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return out
}
