package builder

import (
	"testing"

	"graphsnap/internal/adapter"
)

// fullActionTopics declares the five suffixed topics of one legacy action
// under base, typed the way the graph reports them.
func fullActionTopics(base string) []adapter.InterfaceInfo {
	return []adapter.InterfaceInfo{
		{Name: base + "/goal", Types: []string{"demo/FibonacciActionGoal"}},
		{Name: base + "/cancel", Types: []string{"actionlib_msgs/GoalID"}},
		{Name: base + "/status", Types: []string{"actionlib_msgs/GoalStatusArray"}},
		{Name: base + "/feedback", Types: []string{"demo/FibonacciActionFeedback"}},
		{Name: base + "/result", Types: []string{"demo/FibonacciActionResult"}},
	}
}

// attachActionTopics wires a client and a server node onto every suffixed
// topic under base, in both the topic and node banks.
func attachActionTopics(base string, topics *TopicBankBuilder, nodes *NodeBankBuilder) {
	client := nodes.Get("/client")
	client.AddInfo(adapter.NodeName{Name: "client", Namespace: "/"})
	server := nodes.Get("/server")
	server.AddInfo(adapter.NodeName{Name: "server", Namespace: "/"})

	for _, suffix := range ClientPublishedTopicSuffixes {
		tb := topics.Get(base + suffix)
		tb.AddNodeName("/client", RolePublished)
		tb.AddNodeName("/server", RoleSubscribed)
		client.AddTopicName(tb.Name(), RolePublished, tb.ConstructType(), "")
		server.AddTopicName(tb.Name(), RoleSubscribed, tb.ConstructType(), "")
	}
	for _, suffix := range ServerPublishedTopicSuffixes {
		tb := topics.Get(base + suffix)
		tb.AddNodeName("/server", RolePublished)
		tb.AddNodeName("/client", RoleSubscribed)
		server.AddTopicName(tb.Name(), RolePublished, tb.ConstructType(), "")
		client.AddTopicName(tb.Name(), RoleSubscribed, tb.ConstructType(), "")
	}
}

func TestDiscoverFromTopicsGroupsFullAction(t *testing.T) {
	filters := testFilters()
	topics := NewTopicBankBuilder(fullActionTopics("/fibonacci"), filters)
	nodes := NewNodeBankBuilder(NewProcessArena(nil), filters, "testhost")
	attachActionTopics("/fibonacci", topics, nodes)
	topics.Get("/chatter")

	actions := NewActionBankBuilder()
	actions.DiscoverFromTopics(topics, nodes)

	ab, ok := actions.Lookup("/fibonacci")
	if !ok {
		t.Fatal("expected the suffixed topics to group into an action")
	}
	if got := ab.ConstructType(); got != "demo/FibonacciAction" {
		t.Errorf("expected type derived from the goal topic, got %q", got)
	}
	if got := ab.ClientNodeNames(); len(got) != 1 || got[0] != "/client" {
		t.Errorf("expected client role for /client, got %v", got)
	}
	if got := ab.ServerNodeNames(); len(got) != 1 || got[0] != "/server" {
		t.Errorf("expected server role for /server, got %v", got)
	}

	// The topics are absorbed; unrelated ones stay.
	if topics.Len() != 1 {
		t.Errorf("expected only /chatter to remain, got %v", topics.Names())
	}

	client, _ := nodes.Lookup("/client")
	if got := client.PublishedTopicNames(); len(got) != 0 {
		t.Errorf("expected action topics removed from the client, got %v", got)
	}
	if got := client.ActionClients(); len(got) != 1 || got[0] != "/fibonacci" {
		t.Errorf("expected action client registration, got %v", got)
	}
	server, _ := nodes.Lookup("/server")
	if got := server.ActionServers(); len(got) != 1 || got[0] != "/fibonacci" {
		t.Errorf("expected action server registration, got %v", got)
	}
}

func TestDiscoverFromTopicsRejectsTooFewSuffixes(t *testing.T) {
	filters := testFilters()
	topics := NewTopicBankBuilder(fullActionTopics("/fibonacci")[:2], filters)
	nodes := NewNodeBankBuilder(NewProcessArena(nil), filters, "testhost")
	topics.Get("/fibonacci/goal")
	topics.Get("/fibonacci/cancel")

	actions := NewActionBankBuilder()
	actions.DiscoverFromTopics(topics, nodes)

	if actions.Len() != 0 {
		t.Errorf("expected no action from two suffixes, got %v", actions.Names())
	}
	if topics.Len() != 2 {
		t.Errorf("expected rejected topics to stay, got %v", topics.Names())
	}
}

func TestDiscoverFromTopicsRejectsMistypedCore(t *testing.T) {
	declarations := []adapter.InterfaceInfo{
		{Name: "/fake/goal", Types: []string{"std_msgs/msg/String"}},
		{Name: "/fake/result", Types: []string{"demo/FakeActionResult"}},
		{Name: "/fake/feedback", Types: []string{"demo/FakeActionFeedback"}},
	}
	filters := testFilters()
	topics := NewTopicBankBuilder(declarations, filters)
	nodes := NewNodeBankBuilder(NewProcessArena(nil), filters, "testhost")
	for _, d := range declarations {
		topics.Get(d.Name)
	}

	actions := NewActionBankBuilder()
	actions.DiscoverFromTopics(topics, nodes)

	if actions.Len() != 0 {
		t.Errorf("expected mistyped goal topic to reject the candidate, got %v", actions.Names())
	}
	if topics.Len() != 3 {
		t.Errorf("expected rejected topics to stay, got %v", topics.Names())
	}
}

func TestRoleRequiresFullParticipation(t *testing.T) {
	filters := testFilters()
	topics := NewTopicBankBuilder(fullActionTopics("/fibonacci"), filters)
	nodes := NewNodeBankBuilder(NewProcessArena(nil), filters, "testhost")
	attachActionTopics("/fibonacci", topics, nodes)

	// A second client missing from the status topic must not earn the role.
	for _, suffix := range []string{"/goal", "/cancel"} {
		topics.Get("/fibonacci" + suffix).AddNodeName("/partial", RolePublished)
	}
	for _, suffix := range []string{"/feedback", "/result"} {
		topics.Get("/fibonacci" + suffix).AddNodeName("/partial", RoleSubscribed)
	}

	actions := NewActionBankBuilder()
	actions.DiscoverFromTopics(topics, nodes)

	ab, ok := actions.Lookup("/fibonacci")
	if !ok {
		t.Fatal("expected the action to group")
	}
	if got := ab.ClientNodeNames(); len(got) != 1 || got[0] != "/client" {
		t.Errorf("expected the partial participant excluded, got %v", got)
	}
}

func TestDiscoverSkipsDirectlyKnownActions(t *testing.T) {
	filters := testFilters()
	topics := NewTopicBankBuilder(fullActionTopics("/fibonacci"), filters)
	nodes := NewNodeBankBuilder(NewProcessArena(nil), filters, "testhost")
	attachActionTopics("/fibonacci", topics, nodes)

	actions := NewActionBankBuilder()
	known := actions.Get("/fibonacci")
	known.SetInfo([]string{"/client"}, []string{"/server"}, []string{"demo/action/Fibonacci"})

	actions.DiscoverFromTopics(topics, nodes)

	ab, _ := actions.Lookup("/fibonacci")
	if got := ab.ConstructType(); got != "demo/action/Fibonacci" {
		t.Errorf("expected direct discovery to win, got %q", got)
	}
	if topics.Len() != 5 {
		t.Errorf("expected topics untouched for known actions, got %d", topics.Len())
	}
}

func TestSetInfoDeduplicates(t *testing.T) {
	ab := newActionBuilder("/fibonacci")
	ab.SetInfo(
		[]string{"/b", "/a", "/a"},
		[]string{"/srv"},
		[]string{"demo/action/Fibonacci", "demo/action/Fibonacci"},
	)

	if got := ab.ClientNodeNames(); len(got) != 2 || got[0] != "/a" || got[1] != "/b" {
		t.Errorf("expected sorted unique clients, got %v", got)
	}
	if got := ab.ConstructType(); got != "demo/action/Fibonacci" {
		t.Errorf("unexpected construct type %q", got)
	}
}

func TestIsActionTopicSuffix(t *testing.T) {
	for _, suffix := range []string{"/goal", "/cancel", "/status", "/feedback", "/result"} {
		if !IsActionTopicSuffix(suffix) {
			t.Errorf("expected %s to be an action suffix", suffix)
		}
	}
	if IsActionTopicSuffix("/chatter") {
		t.Error("expected /chatter to be rejected")
	}
}
