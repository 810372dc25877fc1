package builder

import (
	"net"
	"os"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"

	"graphsnap/internal/domain"
)

// Sentinels recorded when a machine name cannot be resolved in either
// direction.
const (
	UnknownHostname  = "UNKNOWN HOSTNAME"
	UnknownIPAddress = "UNKNOWN IP ADDRESS"
)

// DNS entry points, swappable in tests.
var (
	lookupHost = net.LookupHost
	lookupAddr = net.LookupAddr
)

// MachineBuilder accumulates the nodes observed on one machine and
// resolves the machine's name into a hostname and address pair.
type MachineBuilder struct {
	entityBuilder

	hostsPath string

	hostname  string
	ipAddress string
	nodeNames []string
	resolved  bool
}

func newMachineBuilder(name, hostsPath string) *MachineBuilder {
	return &MachineBuilder{entityBuilder: newEntityBuilder(name), hostsPath: hostsPath}
}

// AddNodeName associates a node with the machine, once.
func (b *MachineBuilder) AddNodeName(nodeName string) {
	if !slices.Contains(b.nodeNames, nodeName) {
		b.nodeNames = append(b.nodeNames, nodeName)
	}
}

// NodeNames returns the associated nodes in recorded order.
func (b *MachineBuilder) NodeNames() []string { return b.nodeNames }

// Hostname returns the machine's resolved hostname.
func (b *MachineBuilder) Hostname() string {
	b.resolve()
	return b.hostname
}

// IPAddress returns the machine's resolved address.
func (b *MachineBuilder) IPAddress() string {
	b.resolve()
	return b.ipAddress
}

// resolve fills the hostname and address pair from the machine name.
// Forward resolution is tried first, then reverse, then the name is taken
// literally with the hosts file as the directory of last resort.
func (b *MachineBuilder) resolve() {
	if b.resolved {
		return
	}
	b.resolved = true

	if addrs, err := lookupHost(b.name); err == nil && len(addrs) > 0 {
		b.hostname = b.name
		b.ipAddress = addrs[0]
		return
	}
	if names, err := lookupAddr(b.name); err == nil && len(names) > 0 {
		b.hostname = strings.TrimSuffix(names[0], ".")
		b.ipAddress = b.name
		return
	}

	if len(strings.Split(b.name, ".")) == 4 {
		b.ipAddress = b.name
		b.hostname = UnknownHostname
		if hostname, ok := scanHostsForHostname(b.hostsPath, b.name); ok {
			b.hostname = hostname
		} else {
			log.WithField("machine", b.name).Warn("no hostname found for address")
		}
		return
	}
	b.hostname = b.name
	b.ipAddress = UnknownIPAddress
	if ip, ok := scanHostsForIP(b.hostsPath, b.name); ok {
		b.ipAddress = ip
	} else {
		log.WithField("machine", b.name).Warn("no address found for hostname")
	}
}

// scanHostsForHostname returns the first hostname listed for ip in the
// hosts file at path.
func scanHostsForHostname(path, ip string) (string, bool) {
	for _, fields := range hostsEntries(path) {
		if fields[0] == ip {
			return fields[1], true
		}
	}
	return "", false
}

// scanHostsForIP returns the address of the first hosts entry listing
// hostname as one of its names.
func scanHostsForIP(path, hostname string) (string, bool) {
	for _, fields := range hostsEntries(path) {
		if slices.Contains(fields[1:], hostname) {
			return fields[0], true
		}
	}
	return "", false
}

// hostsEntries parses the hosts file at path into field lists, skipping
// blanks, comments, and entries without at least one name.
func hostsEntries(path string) [][]string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.WithFields(log.Fields{"path": path, "error": err}).Debug("cannot read hosts file")
		return nil
	}
	var entries [][]string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 1 {
			entries = append(entries, fields)
		}
	}
	return entries
}

// Extract materializes the machine entity from the accumulated state.
func (b *MachineBuilder) Extract() *domain.Machine {
	machine := domain.NewMachine(b.name)
	machine.Source = domain.SourceSnapshot
	machine.Hostname = b.Hostname()
	machine.IPAddress = b.IPAddress()
	machine.NodeNames = b.nodeNames
	return machine
}

// MachineBankBuilder collects the machine builders of one session.
type MachineBankBuilder struct {
	builderMap[*MachineBuilder]

	hostsPath string
}

// NewMachineBankBuilder returns an empty machine bank builder reading
// hosts entries from hostsPath, or from the system hosts file when empty.
func NewMachineBankBuilder(hostsPath string) *MachineBankBuilder {
	if hostsPath == "" {
		hostsPath = "/etc/hosts"
	}
	return &MachineBankBuilder{hostsPath: hostsPath}
}

// Get returns the builder for name, creating one on first use.
func (bb *MachineBankBuilder) Get(name string) *MachineBuilder {
	return bb.get(name, func(name string) *MachineBuilder {
		return newMachineBuilder(name, bb.hostsPath)
	})
}

// Prepare assigns every surviving node builder to its machine. Machines
// are created here rather than during collection so only nodes that
// survived filtering contribute.
func (bb *MachineBankBuilder) Prepare(nodes *NodeBankBuilder) {
	nodes.Each(func(_ string, nb *NodeBuilder) {
		bb.Get(nb.Machine()).AddNodeName(nb.Name())
	})
}

// Extract materializes the machine bank from the accumulated builders.
func (bb *MachineBankBuilder) Extract() *domain.Bank[*domain.Machine] {
	bank := domain.NewBank(domain.BankMachine, domain.NewMachine)
	bb.Each(func(_ string, mb *MachineBuilder) { bank.Put(mb.Extract()) })
	return bank
}
