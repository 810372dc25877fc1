package service

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"graphsnap/internal/domain"
)

const demoManifest = `<?xml version="1.0"?>
<package format="3">
  <name>demo_pkg</name>
  <version>1.2.3</version>
  <depend>rclcpp</depend>
  <build_depend>ament_cmake</build_depend>
  <exec_depend>std_msgs</exec_depend>
</package>
`

func writeTree(t *testing.T, root string, mode os.FileMode, path, content string) {
	t.Helper()
	full := filepath.Join(root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
}

func demoPrefix(t *testing.T) string {
	t.Helper()
	prefix := t.TempDir()
	writeTree(t, prefix, 0o644, "share/demo_pkg/package.xml", demoManifest)
	writeTree(t, prefix, 0o644, "share/demo_pkg/msg/Num.msg", "int64 num\n")
	writeTree(t, prefix, 0o644, "share/demo_pkg/msg/detail/Inner.msg", "string data\n")
	writeTree(t, prefix, 0o644, "share/demo_pkg/srv/AddTwo.srv", "int64 a\nint64 b\n---\nint64 sum\n")
	writeTree(t, prefix, 0o644, "share/demo_pkg/action/Fibonacci.action", "int32 order\n---\nint32[] sequence\n---\nint32[] partial\n")
	writeTree(t, prefix, 0o644, "share/demo_pkg/launch/demo.launch.py", "# launch\n")
	writeTree(t, prefix, 0o644, "share/demo_pkg/launch/params.yaml", "rate: 10\n")
	writeTree(t, prefix, 0o644, "share/demo_pkg/config/settings.yaml", "mode: fast\n")
	writeTree(t, prefix, 0o755, "share/demo_pkg/scripts/helper", "#!/bin/sh\n")
	writeTree(t, prefix, 0o755, "share/demo_pkg/scripts/talker", "#!/bin/sh\n")
	writeTree(t, prefix, 0o644, "share/demo_pkg/cmake/demoConfig.cmake", "# cmake\n")
	writeTree(t, prefix, 0o755, "lib/demo_pkg/talker", "binary\n")
	writeTree(t, prefix, 0o644, "lib/demo_pkg/notes.txt", "not a node\n")
	// A share entry without a manifest is not a package.
	writeTree(t, prefix, 0o644, "share/stray/readme.txt", "nothing here\n")
	return prefix
}

func TestWorkspaceCrawlPackage(t *testing.T) {
	prefix := demoPrefix(t)
	model, err := NewWorkspaceModeler().Crawl([]string{prefix})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := model.PackageSpecifications.Names(); !reflect.DeepEqual(got, []string{"demo_pkg"}) {
		t.Fatalf("expected just demo_pkg, got %v", got)
	}
	pkg, _ := model.PackageSpecifications.Lookup("demo_pkg")
	if pkg.SharePath != filepath.Join(prefix, "share", "demo_pkg") {
		t.Errorf("unexpected share path %q", pkg.SharePath)
	}
	if want := []string{"rclcpp", "ament_cmake", "std_msgs"}; !reflect.DeepEqual(pkg.Dependencies, want) {
		t.Errorf("expected dependencies %v, got %v", want, pkg.Dependencies)
	}
	if pkg.PackageVersion != "1.2.3" {
		t.Errorf("expected manifest version, got %q", pkg.PackageVersion)
	}
	if pkg.Source != domain.SourceWorkspace {
		t.Errorf("expected workspace provenance, got %q", pkg.Source)
	}
	for _, node := range []string{"talker", "helper"} {
		if !slices.Contains(pkg.Nodes, node) {
			t.Errorf("expected node %q recorded, got %v", node, pkg.Nodes)
		}
	}
	if want := []string{"Num", "detail/Inner"}; !reflect.DeepEqual(pkg.Messages, want) {
		t.Errorf("expected messages %v, got %v", want, pkg.Messages)
	}
	if want := []string{"AddTwo"}; !reflect.DeepEqual(pkg.Services, want) {
		t.Errorf("expected services %v, got %v", want, pkg.Services)
	}
	if want := []string{"Fibonacci"}; !reflect.DeepEqual(pkg.Actions, want) {
		t.Errorf("expected actions %v, got %v", want, pkg.Actions)
	}
	if !slices.Contains(pkg.LaunchFiles, "launch/demo.launch.py") {
		t.Errorf("expected the launch file inventory, got %v", pkg.LaunchFiles)
	}
	for _, param := range []string{"launch/params.yaml", "config/settings.yaml"} {
		if !slices.Contains(pkg.ParameterFiles, param) {
			t.Errorf("expected parameter file %q, got %v", param, pkg.ParameterFiles)
		}
	}
}

func TestWorkspaceNodeSpecifications(t *testing.T) {
	prefix := demoPrefix(t)
	model, err := NewWorkspaceModeler().Crawl([]string{prefix})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spec, ok := model.NodeSpecifications.Lookup("demo_pkg/talker")
	if !ok {
		t.Fatal("expected a specification for demo_pkg/talker")
	}
	if spec.Package != "demo_pkg" {
		t.Errorf("expected package demo_pkg, got %q", spec.Package)
	}
	if spec.Validated {
		t.Error("expected a crawled specification to start unvalidated")
	}
	if spec.Source != domain.SourceWorkspace {
		t.Errorf("expected workspace provenance, got %q", spec.Source)
	}

	// The same node name in lib and scripts accumulates both paths under
	// one specification.
	if len(spec.FilePath) != 2 {
		t.Fatalf("expected both executable paths kept, got %v", spec.FilePath)
	}
	libPath, _ := filepath.EvalSymlinks(filepath.Join(prefix, "lib", "demo_pkg", "talker"))
	if !spec.FilePath.Contains(libPath) {
		t.Errorf("expected the lib path in %v", spec.FilePath)
	}

	if _, ok := model.NodeSpecifications.Lookup("demo_pkg/notes"); ok {
		t.Error("expected non-executable files to be ignored")
	}
}

func TestWorkspaceTypeSpecifications(t *testing.T) {
	prefix := demoPrefix(t)
	model, err := NewWorkspaceModeler().Crawl([]string{prefix})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg, ok := model.MessageSpecifications.Lookup("demo_pkg/Num")
	if !ok {
		t.Fatal("expected a message specification for demo_pkg/Num")
	}
	if msg.ConstructType != domain.InterfaceMessage {
		t.Errorf("expected msg construct type, got %q", msg.ConstructType)
	}
	if msg.Definition != "\nint64 num\n" {
		t.Errorf("expected the definition text with a leading newline, got %q", msg.Definition)
	}
	if msg.Package != "demo_pkg" {
		t.Errorf("expected package demo_pkg, got %q", msg.Package)
	}

	if _, ok := model.MessageSpecifications.Lookup("demo_pkg/detail/Inner"); !ok {
		t.Error("expected nested definitions keyed with their subfolder")
	}
	if _, ok := model.ServiceSpecifications.Lookup("demo_pkg/AddTwo"); !ok {
		t.Error("expected a service specification for demo_pkg/AddTwo")
	}
	if _, ok := model.ActionSpecifications.Lookup("demo_pkg/Fibonacci"); !ok {
		t.Error("expected an action specification for demo_pkg/Fibonacci")
	}
}

func TestWorkspaceCrawlMissingPrefix(t *testing.T) {
	model, err := NewWorkspaceModeler().Crawl([]string{"/does/not/exist"})
	if err != nil {
		t.Fatalf("expected a missing prefix to be skipped, got %v", err)
	}
	if got := model.PackageSpecifications.Len(); got != 0 {
		t.Errorf("expected an empty model, got %d packages", got)
	}
}
