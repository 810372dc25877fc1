package service

import (
	"fmt"
	"maps"
	"os"
	"path"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"graphsnap/internal/builder"
	"graphsnap/internal/domain"
)

// Reconciler matches the observed node builders of one session against a
// loaded specification model. Nodes with a validated specification are
// checked token by token; nodes with an unvalidated one donate their
// observed interface as the learned specification.
type Reconciler struct {
	specs *domain.Model

	nodes      *builder.NodeBankBuilder
	topics     *builder.TopicBankBuilder
	actions    *builder.ActionBankBuilder
	services   *builder.ServiceBankBuilder
	parameters *builder.ParameterBankBuilder
}

// NewReconciler wires a reconciler over the specification model and the
// bank builders of one prepared session.
func NewReconciler(
	specs *domain.Model,
	nodes *builder.NodeBankBuilder,
	topics *builder.TopicBankBuilder,
	actions *builder.ActionBankBuilder,
	services *builder.ServiceBankBuilder,
	parameters *builder.ParameterBankBuilder,
) *Reconciler {
	return &Reconciler{
		specs:      specs,
		nodes:      nodes,
		topics:     topics,
		actions:    actions,
		services:   services,
		parameters: parameters,
	}
}

// ReconcileResult summarizes one reconciliation pass over the node bank.
type ReconcileResult struct {
	Validated  []string
	Mismatched []string
	Learned    []string
	Unmatched  []UnmatchedNode

	// SpecificationUpdate reports that at least one specification was
	// learned, so the specification model needs to be saved again.
	SpecificationUpdate bool
}

// UnmatchedNode records a node whose executable matched no specification.
type UnmatchedNode struct {
	NodeName       string
	FileName       string
	ExecutableFile string
	ExecutableName string
}

// Reconcile walks every node builder, resolves its executable to a
// specification name, and validates or learns that specification. A
// resolved name with no specification entity behind it aborts the run:
// the specification model and its remap index disagree, which no amount
// of fuzzy matching can paper over.
func (r *Reconciler) Reconcile() (*ReconcileResult, error) {
	remapper := nodeSpecRemapper(r.specs.NodeSpecifications)
	result := &ReconcileResult{}

	var fatal error
	r.nodes.Each(func(nodeKey string, nb *builder.NodeBuilder) {
		if fatal != nil {
			return
		}
		remap, fileName, ok := resolveSpecRemap(remapper, nb)
		if !ok {
			result.Unmatched = append(result.Unmatched, UnmatchedNode{
				NodeName:       nodeKey,
				FileName:       fileName,
				ExecutableFile: nb.ExecutableFile(),
				ExecutableName: nb.ExecutableName(),
			})
			log.WithFields(log.Fields{
				"node":       nodeKey,
				"file":       fileName,
				"executable": nb.ExecutableName(),
			}).Warn("unknown executable, skipping specification validation")
			return
		}

		nb.SetShortName(remap)
		spec, ok := r.specs.NodeSpecifications.Lookup(remap)
		if !ok {
			fatal = fmt.Errorf("validate node %q: no node specification under %q", nodeKey, remap)
			return
		}

		if !spec.Validated {
			r.learnNodeSpecification(spec, nb)
			result.Learned = append(result.Learned, nodeKey)
			result.SpecificationUpdate = true
			return
		}
		if r.validateNodeBuilder(nodeKey, nb, spec) {
			result.Validated = append(result.Validated, nodeKey)
			return
		}
		result.Mismatched = append(result.Mismatched, nodeKey)
		log.WithField("node", nodeKey).Warn("node is validated in the specification, but deployment information does not match")
	})
	if fatal != nil {
		return nil, fatal
	}
	return result, nil
}

// resolveSpecRemap finds the specification name for a node's executable.
// Interpreter processes hide the script behind the interpreter path, so
// python nodes fall back through the script argument, its symlink target,
// the bare process name, and finally a substring scan of every known
// executable path.
func resolveSpecRemap(remapper *RemapperBank, nb *builder.NodeBuilder) (remap, fileName string, ok bool) {
	fileName = nb.ExecutableFile()
	if remap, ok := remapper.First(fileName); ok {
		return remap, fileName, true
	}

	cmdline := nb.Cmdline()
	if len(cmdline) == 0 || !strings.Contains(cmdline[0], "python") {
		return "", fileName, false
	}
	if len(cmdline) > 1 {
		fileName = cmdline[1]
	}
	if remap, ok := remapper.First(fileName); ok {
		return remap, fileName, true
	}
	if target, err := os.Readlink(fileName); err == nil {
		if remap, ok := remapper.First(target); ok {
			log.WithFields(log.Fields{"link": fileName, "target": target}).Info("using symlink target as executable file")
			return remap, target, true
		}
	}

	log.WithFields(log.Fields{
		"node":       nb.Name(),
		"file":       fileName,
		"executable": nb.ExecutableName(),
	}).Info("executable file not in specifications, trying process name")
	if remap, ok := remapper.First(nb.ExecutableName()); ok {
		return remap, fileName, true
	}

	executablePath := cmdlineScriptPath(cmdline)
	for _, key := range remapper.Keys() {
		if strings.Contains(key, executablePath) {
			log.WithFields(log.Fields{"path": executablePath, "key": key}).Info("matched executable through command line path")
			remap, _ := remapper.First(key)
			return remap, fileName, true
		}
	}
	return "", fileName, false
}

// cmdlineScriptPath approximates the script path of an interpreter node
// from its command line. Run tools put the package and executable in the
// fourth and fifth arguments; shorter command lines are scanned whole.
func cmdlineScriptPath(cmdline []string) string {
	switch {
	case len(cmdline) >= 5:
		return path.Join(cmdline[3], cmdline[4])
	case len(cmdline) == 4:
		return cmdline[3]
	}
	return strings.Join(cmdline, "  ")
}

// validateNodeBuilder checks every interface category of one node against
// its validated specification. A failing category marks the node invalid
// but the remaining categories are still walked, so the log names every
// discrepancy in one run.
func (r *Reconciler) validateNodeBuilder(nodeName string, nb *builder.NodeBuilder, spec *domain.NodeSpecification) bool {
	log.WithField("node", nodeName).Debug("validating node against specification")

	valid := true
	if len(spec.Parameters) < len(nb.ParameterNames()) {
		log.WithFields(log.Fields{
			"node":     nodeName,
			"observed": len(nb.ParameterNames()),
			"declared": len(spec.Parameters),
		}).Warn("node reads more parameters than its specification declares")
		valid = false
	}

	valid = matchTokenTypes(nodeName, nb.ParameterNames(), r.parameterType, spec.Parameters) && valid
	valid = matchTokenTypes(nodeName, nb.ActionClients(), r.actionType, spec.ActionClients) && valid
	valid = matchTokenTypes(nodeName, nb.ActionServers(), r.actionType, spec.ActionServers) && valid
	valid = matchTokenTypes(nodeName, nb.PublishedTopicNames(), r.topicType, spec.PublishedTopics) && valid
	valid = matchTokenTypes(nodeName, nb.SubscribedTopicNames(), r.topicType, spec.SubscribedTopics) && valid
	valid = matchTokenTypes(nodeName, nb.ServiceNamesWithRemap(), r.serviceType, spec.ServicesProvided) && valid
	return valid
}

// matchTokenTypes consumes each observed name against the specification's
// token-to-type map. An exact trailing-token match is preferred, then any
// unconsumed token containing the observed token as a substring, then any
// unconsumed token of the right type. Renamed interfaces therefore still
// validate as long as the types line up. Each specification token is
// consumed at most once.
func matchTokenTypes(nodeName string, observed []string, typeOf func(string) string, specTypes map[string]string) bool {
	if specTypes == nil {
		return len(observed) == 0
	}

	available := make(map[string]struct{}, len(specTypes))
	for token := range specTypes {
		available[token] = struct{}{}
	}

	valid := true
	for _, name := range sortedCopy(observed) {
		ioType := typeOf(name)
		token := nameToken(name)
		if _, ok := available[token]; ok && specTypes[token] == ioType {
			delete(available, token)
			continue
		}
		matched, ok := consumeFuzzy(available, specTypes, token, ioType)
		if !ok {
			log.WithFields(log.Fields{
				"node": nodeName,
				"name": name,
				"type": ioType,
			}).Warn("observed interface has no specification match")
			valid = false
			continue
		}
		delete(available, matched)
	}
	return valid
}

// consumeFuzzy picks a specification token for an observed token without
// an exact match: first the sorted substring candidates of the right
// type, then any remaining token of the right type.
func consumeFuzzy(available map[string]struct{}, specTypes map[string]string, token, ioType string) (string, bool) {
	var potential, remaining []string
	for candidate := range available {
		if strings.Contains(candidate, token) {
			potential = append(potential, candidate)
		} else {
			remaining = append(remaining, candidate)
		}
	}
	sort.Strings(potential)
	sort.Strings(remaining)
	for _, candidate := range potential {
		if specTypes[candidate] == ioType {
			return candidate, true
		}
	}
	for _, candidate := range remaining {
		if specTypes[candidate] == ioType {
			return candidate, true
		}
	}
	return "", false
}

// learnNodeSpecification fills an unvalidated specification from the
// first observed instance of its node and marks it validated.
func (r *Reconciler) learnNodeSpecification(spec *domain.NodeSpecification, nb *builder.NodeBuilder) {
	log.WithFields(log.Fields{"node": nb.Name(), "name": spec.Name}).Info("learning specification from deployment")
	spec.Merge(&domain.NodeSpecification{
		Meta:      domain.Meta{Name: spec.Name, Source: domain.SourceSnapshot},
		Validated: true,

		Parameters:       learnTokenTypes(spec.Parameters, nb.ParameterNames(), r.parameterType),
		ActionClients:    learnTokenTypes(spec.ActionClients, nb.ActionClients(), r.actionType),
		ActionServers:    learnTokenTypes(spec.ActionServers, nb.ActionServers(), r.actionType),
		PublishedTopics:  learnTokenTypes(spec.PublishedTopics, nb.PublishedTopicNames(), r.topicType),
		SubscribedTopics: learnTokenTypes(spec.SubscribedTopics, nb.SubscribedTopicNames(), r.topicType),
		ServicesProvided: learnTokenTypes(spec.ServicesProvided, nb.ServiceNamesWithRemap(), r.serviceType),
	})
}

// learnTokenTypes returns specTypes extended with one entry per observed
// name. A token colliding with an existing entry gets a numeric suffix so
// repeated short names stay distinct.
func learnTokenTypes(specTypes map[string]string, observed []string, typeOf func(string) string) map[string]string {
	learned := make(map[string]string, len(specTypes)+len(observed))
	maps.Copy(learned, specTypes)

	collisions := make(map[string]int, len(learned))
	for token := range learned {
		collisions[token] = 0
	}
	for _, name := range sortedCopy(observed) {
		ioType := typeOf(name)
		token := nameToken(name)
		if _, ok := learned[token]; ok {
			collisions[token]++
			token = fmt.Sprintf("%s_%d", token, collisions[token])
		} else {
			collisions[token] = 0
		}
		learned[token] = ioType
	}
	return learned
}

// The construct type sources feed the token matcher. Lookups go through
// the bank builders so a name carries the same type here as in the
// extracted model.

func (r *Reconciler) topicType(name string) string { return r.topics.Get(name).ConstructType() }

func (r *Reconciler) actionType(name string) string { return r.actions.Get(name).ConstructType() }

func (r *Reconciler) serviceType(name string) string { return r.services.Get(name).ConstructType() }

func (r *Reconciler) parameterType(name string) string {
	return r.parameters.Get(name).ConstructType()
}

// nameToken returns the trailing slash-delimited segment of name.
func nameToken(name string) string {
	return name[strings.LastIndexByte(name, '/')+1:]
}

func sortedCopy(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}
