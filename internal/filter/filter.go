// Package filter holds the exclusion policies that keep infrastructure
// entities out of a snapshot model. Policies are immutable values built
// once per session from the session options, so toggling an option can
// never race a policy already in use.
package filter

// Options selects which optional exclusion tiers apply for a session.
type Options struct {
	// DropDebug excludes logging and introspection plumbing.
	DropDebug bool
	// DropTF excludes the transform distribution channels.
	DropTF bool
}

// Policy decides whether one named item is excluded. Membership in the
// base tier always excludes; the debug and transform tiers apply only when
// enabled by the session options.
type Policy struct {
	base      map[string]struct{}
	debug     map[string]struct{}
	tf        map[string]struct{}
	dropDebug bool
	dropTF    bool
}

// ShouldFilterOut reports whether item is excluded under this policy.
func (p Policy) ShouldFilterOut(item string) bool {
	if _, ok := p.base[item]; ok {
		return true
	}
	if p.dropDebug {
		if _, ok := p.debug[item]; ok {
			return true
		}
	}
	if p.dropTF {
		if _, ok := p.tf[item]; ok {
			return true
		}
	}
	return false
}

var (
	nodeBase  = []string{"/roslaunch"}
	nodeDebug = []string{"/rosout"}

	topicDebug = []string{"/rosout", "/rosout_agg", "/statistics"}
	topicTF    = []string{"/tf", "/tf_static"}

	serviceTypeDebug = []string{"roscpp/GetLoggers", "roscpp/SetLoggerLevel"}
)

// Set bundles the session's policies. Nodes and Topics are keyed by full
// entity name, ServiceTypes by service type string.
type Set struct {
	Nodes        Policy
	Topics       Policy
	ServiceTypes Policy
}

// NewSet builds the session policies. ownNodes names the snapshot tool's
// own graph nodes, which are always excluded from the model they observe.
func NewSet(opts Options, ownNodes ...string) Set {
	return Set{
		Nodes:        newPolicy(opts, append(append([]string{}, nodeBase...), ownNodes...), nodeDebug, nil),
		Topics:       newPolicy(opts, nil, topicDebug, topicTF),
		ServiceTypes: newPolicy(opts, nil, serviceTypeDebug, nil),
	}
}

func newPolicy(opts Options, base, debug, tf []string) Policy {
	return Policy{
		base:      toSet(base),
		debug:     toSet(debug),
		tf:        toSet(tf),
		dropDebug: opts.DropDebug,
		dropTF:    opts.DropTF,
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
