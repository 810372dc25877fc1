package builder

import (
	"testing"

	"graphsnap/internal/adapter"
	"graphsnap/internal/domain"
)

func TestFindServiceType(t *testing.T) {
	declarations := []adapter.InterfaceInfo{
		{Name: "/add_two_ints", Types: []string{"example_interfaces/srv/AddTwoInts"}},
		{Name: "/mixed", Types: []string{"example_interfaces/srv/AddTwoInts", "example_interfaces/srv/SetBool"}},
		{Name: "/untyped", Types: nil},
	}
	bank := NewServiceBankBuilder(declarations, testFilters())

	t.Run("single declared type", func(t *testing.T) {
		if got := bank.Get("/add_two_ints").ConstructType(); got != "example_interfaces/srv/AddTwoInts" {
			t.Errorf("expected declared type, got %q", got)
		}
	})

	t.Run("multiple declared types keep the first", func(t *testing.T) {
		if got := bank.Get("/mixed").ConstructType(); got != "example_interfaces/srv/AddTwoInts" {
			t.Errorf("expected first declaration, got %q", got)
		}
	})

	t.Run("undeclared service stays untyped", func(t *testing.T) {
		if got := bank.Get("/surprise").ConstructType(); got != "" {
			t.Errorf("expected empty type, got %q", got)
		}
	})
}

func TestServiceProviderFiltering(t *testing.T) {
	bank := NewServiceBankBuilder(nil, testFilters())
	sb := bank.Get("/add_two_ints")
	sb.AddProviderNodeName("/server")
	sb.AddProviderNodeName("/rosout")
	sb.AddProviderNodeName("/snapshot")
	sb.AddProviderNodeName("/server")

	got := sb.ProviderNodeNames()
	if len(got) != 1 || got[0] != "/server" {
		t.Errorf("expected only /server to survive, got %v", got)
	}
}

func TestServiceBankPrepareFiltersByType(t *testing.T) {
	declarations := []adapter.InterfaceInfo{
		{Name: "/talker/get_loggers", Types: []string{"roscpp/GetLoggers"}},
		{Name: "/add_two_ints", Types: []string{"example_interfaces/srv/AddTwoInts"}},
	}
	bank := NewServiceBankBuilder(declarations, testFilters())
	bank.Get("/talker/get_loggers")
	bank.Get("/add_two_ints")

	bank.Prepare()

	if bank.Len() != 1 {
		t.Fatalf("expected one surviving service, got %d (%v)", bank.Len(), bank.Names())
	}
	if _, ok := bank.Lookup("/add_two_ints"); !ok {
		t.Error("expected /add_two_ints to survive filtering")
	}
}

func TestServiceExtract(t *testing.T) {
	bank := NewServiceBankBuilder([]adapter.InterfaceInfo{
		{Name: "/add_two_ints", Types: []string{"example_interfaces/srv/AddTwoInts"}},
	}, testFilters())
	sb := bank.Get("/add_two_ints")
	sb.AddProviderNodeName("/server")

	service := sb.Extract()
	if service.Name != "/add_two_ints" {
		t.Errorf("unexpected service name %q", service.Name)
	}
	if service.ConstructType != "example_interfaces/srv/AddTwoInts" {
		t.Errorf("unexpected construct type %q", service.ConstructType)
	}
	if len(service.ServiceProviderNodeNames) != 1 || service.ServiceProviderNodeNames[0] != "/server" {
		t.Errorf("unexpected providers %v", service.ServiceProviderNodeNames)
	}
	if service.Source != domain.SourceSnapshot {
		t.Errorf("expected snapshot source, got %q", service.Source)
	}
}
