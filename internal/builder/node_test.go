package builder

import (
	"testing"

	"graphsnap/internal/adapter"
	"graphsnap/internal/domain"
	"graphsnap/internal/filter"
)

func testFilters() *filter.Set {
	set := filter.NewSet(filter.Options{DropDebug: true}, "/snapshot")
	return &set
}

func proc(pid, ppid int32, name, exe string, cmdline ...string) adapter.ProcessRecord {
	return adapter.ProcessRecord{
		PID:           pid,
		PPID:          ppid,
		Name:          name,
		Exe:           exe,
		Cmdline:       cmdline,
		NumThreads:    4,
		CPUPercent:    1.5,
		MemoryPercent: 0.5,
		MemoryInfo:    "rss=1048576",
	}
}

func TestResolvePIDExactProcessName(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		proc(100, 1, "talker", "/opt/ros/lib/demo/talker", "/opt/ros/lib/demo/talker"),
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")

	nb := bank.Get("/talker")
	nb.AddInfo(adapter.NodeName{Name: "talker", Namespace: "/"})

	pid, ok := nb.PID()
	if !ok {
		t.Fatal("expected a resolved process")
	}
	if pid != 100 {
		t.Errorf("expected pid 100, got %d", pid)
	}
	candidate, _ := arena.Lookup(100)
	if candidate.Assigned != "talker" {
		t.Errorf("expected assignment 'talker', got %q", candidate.Assigned)
	}
}

func TestResolvePIDNamespaceRemapToken(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		proc(200, 1, "talker", "/opt/ros/lib/demo/talker",
			"/opt/ros/lib/demo/talker", "--ros-args", "-r", "__ns:=/robot"),
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")

	nb := bank.Get("/robot/talker")
	nb.AddInfo(adapter.NodeName{Name: "talker", Namespace: "/robot"})

	if _, ok := nb.PID(); !ok {
		t.Fatal("expected the namespace remap token to resolve the process")
	}
	candidate, _ := arena.Lookup(200)
	if candidate.Assigned != "/robot/talker" {
		t.Errorf("expected namespaced assignment, got %q", candidate.Assigned)
	}
}

func TestResolvePIDWrongNamespaceFails(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		proc(201, 1, "talker", "/opt/ros/lib/demo/talker", "/opt/ros/lib/demo/talker"),
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")

	nb := bank.Get("/robot/talker")
	if _, ok := nb.ResolvePID("/robot", "talker", true); ok {
		t.Error("expected no match without the namespace token")
	}
}

func TestResolvePIDTokenOverlap(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		proc(300, 1, "image_proc_main", "/opt/ros/lib/image/image_proc_main",
			"/opt/ros/lib/image/image_proc_main"),
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")

	nb := bank.Get("/image_proc_node")
	nb.AddInfo(adapter.NodeName{Name: "image_proc_node", Namespace: "/"})

	pid, ok := nb.PID()
	if !ok || pid != 300 {
		t.Fatalf("expected token overlap to resolve pid 300, got %d (ok=%v)", pid, ok)
	}
}

func TestResolvePIDSkipsEmptyCmdline(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		{PID: 400, PPID: 1, Name: "ghost", Exe: "/usr/bin/ghost"},
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")

	nb := bank.Get("/ghost")
	if _, ok := nb.ResolvePID("/", "ghost", true); ok {
		t.Error("expected processes without a command line to be skipped")
	}
}

func TestResolvePIDChildWinsOverLauncher(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		proc(50, 1, "ros2", "/usr/bin/ros2", "ros2", "launch", "demo", "talker_launch.py"),
		proc(60, 50, "talker", "/opt/ros/lib/demo/talker", "/opt/ros/lib/demo/talker"),
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")

	nb := bank.Get("/talker")
	nb.AddInfo(adapter.NodeName{Name: "talker", Namespace: "/"})

	pid, ok := nb.PID()
	if !ok || pid != 60 {
		t.Fatalf("expected spawned process 60 to win, got %d (ok=%v)", pid, ok)
	}
	launcher, _ := arena.Lookup(50)
	if launcher.Assigned != "60" {
		t.Errorf("expected launcher pre-assigned to its child, got %q", launcher.Assigned)
	}
}

func TestResolvePIDAmbiguityDeferredWithoutGuess(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		proc(100, 1, "python3", "/usr/bin/python3", "python3", "/ws/install/demo/lib/demo/talker"),
		proc(101, 1, "python3", "/usr/bin/python3", "python3", "/ws/install/demo/lib/demo/talker_2"),
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")

	nb := bank.Get("/talker")
	if _, ok := nb.ResolvePID("/", "talker", false); ok {
		t.Fatal("expected the conservative pass to defer an ambiguous match")
	}
	if _, ok := nb.ResolvePID("/", "talker", true); !ok {
		t.Fatal("expected the guessing pass to pick a candidate")
	}
	if pid, _ := nb.PID(); pid != 100 {
		t.Errorf("expected the guess to take the lowest pid, got %d", pid)
	}
}

func TestNodeBankSetNoGuess(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		proc(100, 1, "python3", "/usr/bin/python3", "python3", "/ws/install/demo/lib/demo/talker"),
		proc(101, 1, "python3", "/usr/bin/python3", "python3", "/ws/install/demo/lib/demo/talker_2"),
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")
	bank.SetNoGuess(true)

	nb := bank.Get("/talker")
	nb.AddInfo(adapter.NodeName{Name: "talker", Namespace: "/"})
	if pid, ok := nb.PID(); ok {
		t.Fatalf("expected no process with guessing disabled, got pid %d", pid)
	}
	if got := nb.ExecutableFile(); got != "Unknown 'exe' for '/talker'" {
		t.Errorf("expected the unresolved sentinel, got %q", got)
	}
}

func TestResolvePIDAssignmentExclusion(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		proc(100, 1, "python3", "/usr/bin/python3", "python3", "/ws/install/demo/lib/demo/talker"),
		proc(101, 1, "python3", "/usr/bin/python3", "python3", "/ws/install/demo/lib/demo/talker_2"),
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")

	first := bank.Get("/talker")
	first.AddInfo(adapter.NodeName{Name: "talker", Namespace: "/"})
	if pid, _ := first.PID(); pid != 100 {
		t.Fatalf("expected first node to claim pid 100, got %d", pid)
	}

	// Both command lines overlap "talker_2", but the claimed process is
	// excluded, leaving exactly one candidate for the conservative pass.
	second := bank.Get("/talker_2")
	second.AddInfo(adapter.NodeName{Name: "talker_2", Namespace: "/"})
	pid, ok := second.PID()
	if !ok || pid != 101 {
		t.Fatalf("expected second node to claim pid 101 without guessing, got %d (ok=%v)", pid, ok)
	}

	claimed, _ := arena.Lookup(101)
	if claimed.Assigned != "talker_2" {
		t.Errorf("expected assignment 'talker_2', got %q", claimed.Assigned)
	}
	if len(arena.Unassigned()) != 0 {
		t.Errorf("expected no unassigned candidates, got %d", len(arena.Unassigned()))
	}
}

func TestResolvePIDSingleCandidateAppendsAssignment(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		proc(100, 1, "talker", "/opt/ros/lib/demo/talker", "/opt/ros/lib/demo/talker"),
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")

	first := bank.Get("/talker")
	first.AddInfo(adapter.NodeName{Name: "talker", Namespace: "/"})

	second := bank.Get("/tal")
	second.AddInfo(adapter.NodeName{Name: "tal", Namespace: "/"})

	candidate, _ := arena.Lookup(100)
	if candidate.Assigned != "talker,tal" {
		t.Errorf("expected comma-joined assignments, got %q", candidate.Assigned)
	}
}

func TestNodeBuilderSentinels(t *testing.T) {
	bank := NewNodeBankBuilder(NewProcessArena(nil), testFilters(), "testhost")
	nb := bank.Get("/ghost")
	nb.AddInfo(adapter.NodeName{Name: "ghost", Namespace: "/"})

	if got := nb.ExecutableFile(); got != "Unknown 'exe' for '/ghost'" {
		t.Errorf("unexpected exe sentinel: %q", got)
	}
	if got := nb.ExecutableName(); got != "Unknown 'name' for '/ghost'" {
		t.Errorf("unexpected name sentinel: %q", got)
	}
	if got := nb.NumThreads(); got != "Unknown 'num_threads' for '/ghost'" {
		t.Errorf("unexpected thread sentinel: %q", got)
	}
	if nb.Cmdline() != nil {
		t.Errorf("expected nil cmdline, got %v", nb.Cmdline())
	}
}

func TestNodeBuilderTopicAccumulation(t *testing.T) {
	bank := NewNodeBankBuilder(NewProcessArena(nil), testFilters(), "testhost")
	nb := bank.Get("/talker")

	nb.AddTopicName("/chatter", RolePublished, "std_msgs/msg/String", "")
	nb.AddTopicName("/rosout", RolePublished, "rcl_interfaces/msg/Log", "")
	nb.AddTopicName("/tick", RoleSubscribed, "std_msgs/msg/Empty", "")

	if got := nb.PublishedTopicNames(); len(got) != 1 || got[0] != "/chatter" {
		t.Errorf("expected excluded topic to be dropped, got %v", got)
	}
	if got := nb.SubscribedTopicNames(); len(got) != 1 || got[0] != "/tick" {
		t.Errorf("expected one subscribed topic, got %v", got)
	}
	if got := nb.TopicType("/chatter"); got != "std_msgs/msg/String" {
		t.Errorf("expected recorded topic type, got %q", got)
	}

	nb.RemoveTopicName("/chatter", RolePublished)
	if got := nb.PublishedTopicNames(); len(got) != 0 {
		t.Errorf("expected removal from the published role, got %v", got)
	}
	if _, ok := nb.AllTopicNames()["/chatter"]; !ok {
		t.Error("expected the all-topics view to keep removed topics")
	}
}

func TestNodeBuilderServiceFiltering(t *testing.T) {
	bank := NewNodeBankBuilder(NewProcessArena(nil), testFilters(), "testhost")
	nb := bank.Get("/talker")

	nb.AddServiceNameAndType("/talker/get_loggers", "roscpp/GetLoggers")
	nb.AddServiceNameAndType("/talker/trigger", "std_srvs/srv/Trigger")

	got := nb.ServiceNamesWithRemap()
	if len(got) != 1 || got[0] != "/talker/trigger" {
		t.Errorf("expected debug service type dropped, got %v", got)
	}

	// The list freezes on first use.
	nb.AddServiceNameAndType("/talker/late", "std_srvs/srv/Empty")
	if got := nb.ServiceNamesWithRemap(); len(got) != 1 {
		t.Errorf("expected frozen service list, got %v", got)
	}
}

func TestNodeBankPrepareFiltersNodes(t *testing.T) {
	arena := NewProcessArena(nil)
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")
	for _, name := range []string{"/talker", "/rosout", "/roslaunch", "/snapshot"} {
		nb := bank.Get(name)
		nb.AddInfo(adapter.NodeName{Name: name[1:], Namespace: "/"})
	}

	bank.Prepare()

	if bank.Len() != 1 {
		t.Fatalf("expected one surviving node, got %d (%v)", bank.Len(), bank.Names())
	}
	if _, ok := bank.Lookup("/talker"); !ok {
		t.Error("expected /talker to survive filtering")
	}
}

func TestNodeBuilderExtract(t *testing.T) {
	arena := NewProcessArena([]adapter.ProcessRecord{
		proc(100, 1, "talker", "/opt/ros/lib/demo/talker", "/opt/ros/lib/demo/talker"),
	})
	bank := NewNodeBankBuilder(arena, testFilters(), "testhost")

	nb := bank.Get("/talker")
	nb.AddInfo(adapter.NodeName{Name: "talker", Namespace: "/"})
	nb.AddTopicName("/chatter", RolePublished, "std_msgs/msg/String", "")
	nb.AddParameterName("/talker/use_sim_time")
	nb.AddActionClient("/fibonacci")

	node := nb.Extract()
	if node.Name != "/talker" || node.ShortName != "talker" || node.Namespace != "/" {
		t.Errorf("unexpected identity: %+v", node.Meta)
	}
	if node.Source != domain.SourceSnapshot {
		t.Errorf("expected snapshot source, got %q", node.Source)
	}
	if node.Variant != domain.NodeVariantPlain {
		t.Errorf("expected plain variant, got %q", node.Variant)
	}
	if node.ExecutableFile != "/opt/ros/lib/demo/talker" {
		t.Errorf("unexpected executable file %q", node.ExecutableFile)
	}
	if node.NumThreads != "4" || node.CPUPercent != "1.5" || node.MemoryPercent != "0.5" {
		t.Errorf("unexpected telemetry: threads=%q cpu=%q mem=%q",
			node.NumThreads, node.CPUPercent, node.MemoryPercent)
	}
	if len(node.PublishedTopicNames) != 1 || node.PublishedTopicNames[0] != "/chatter" {
		t.Errorf("unexpected published topics %v", node.PublishedTopicNames)
	}
	if len(node.ActionClients) != 1 || node.ActionClients[0] != "/fibonacci" {
		t.Errorf("unexpected action clients %v", node.ActionClients)
	}
}

func TestNodeBuilderExtractComponentVariants(t *testing.T) {
	bank := NewNodeBankBuilder(NewProcessArena(nil), testFilters(), "testhost")

	manager := bank.Get("/container")
	manager.AddInfo(adapter.NodeName{Name: "container", Namespace: "/"})
	manager.MarkComponentManager()
	manager.SetComponents([]string{"/camera", "/rectify"})

	component := bank.Get("/camera")
	component.AddInfo(adapter.NodeName{Name: "camera", Namespace: "/"})
	component.MarkComponent("/container")

	managerNode := manager.Extract()
	if managerNode.Variant != domain.NodeVariantComponentManager {
		t.Errorf("expected component manager variant, got %q", managerNode.Variant)
	}
	if len(managerNode.Components) != 2 {
		t.Errorf("expected two components, got %v", managerNode.Components)
	}
	if managerNode.ManagerNodeName != "" {
		t.Error("expected manager name unset on the manager itself")
	}

	componentNode := component.Extract()
	if componentNode.Variant != domain.NodeVariantComponent {
		t.Errorf("expected component variant, got %q", componentNode.Variant)
	}
	if componentNode.ManagerNodeName != "/container" {
		t.Errorf("expected manager /container, got %q", componentNode.ManagerNodeName)
	}
	if componentNode.Components != nil {
		t.Errorf("expected no component list on a component, got %v", componentNode.Components)
	}
}

func TestSetShortName(t *testing.T) {
	bank := NewNodeBankBuilder(NewProcessArena(nil), testFilters(), "testhost")
	nb := bank.Get("/talker")
	nb.AddInfo(adapter.NodeName{Name: "talker", Namespace: "/"})

	nb.SetShortName("talker_spec")
	if nb.ShortName() != "talker_spec" {
		t.Errorf("expected renamed node, got %q", nb.ShortName())
	}
	if nb.Name() != "/talker" {
		t.Errorf("expected the full name to stay stable, got %q", nb.Name())
	}
}
