// Command graphsnap captures one snapshot of a ROS computation graph,
// reconciles it against a recorded specification model, and persists the
// result in the selected formats. The workspace subcommand builds the
// specification model a snapshot run reconciles against.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"graphsnap/internal/adapter"
	"graphsnap/internal/builder"
	"graphsnap/internal/codec"
	"graphsnap/internal/config"
	"graphsnap/internal/domain"
	"graphsnap/internal/filter"
	"graphsnap/internal/repository/sqlite"
	"graphsnap/internal/service"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "workspace" {
		os.Exit(runWorkspace(args[1:]))
	}
	os.Exit(runSnapshot(args))
}

func runSnapshot(args []string) int {
	cfg, cfgPath, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "graphsnap: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("graphsnap", flag.ExitOnError)
	all := fs.Bool("all", false, "output every format")
	fs.StringVar(&cfg.TargetDir, "target", cfg.TargetDir, "target output directory")
	fs.BoolVar(&cfg.Formats.YAML, "yaml", cfg.Formats.YAML || !cfg.Formats.Any(), "write YAML bank files")
	fs.BoolVar(&cfg.Formats.JSON, "json", cfg.Formats.JSON, "write JSON bank files")
	fs.BoolVar(&cfg.Formats.Human, "human", cfg.Formats.Human, "write human-readable bank reports")
	fs.BoolVar(&cfg.Formats.Graph, "graph", cfg.Formats.Graph, "write the DOT computation graph")
	fs.BoolVar(&cfg.Formats.Archive, "archive", cfg.Formats.Archive, "record the run in the snapshot archive")
	fs.StringVar(&cfg.BaseName, "base", cfg.BaseName, "output base file name")
	fs.StringVar(&cfg.NodeName, "name", cfg.NodeName, "graph node name of the snapshot tool itself")
	fs.StringVar(&cfg.SpecInputDir, "spec", cfg.SpecInputDir, "specification model input folder")
	fixture := fs.String("fixture", "", "recorded graph facts to replay (YAML fixture)")
	guess := fs.Bool("guess", !cfg.NoGuess, "break ties among ambiguous process candidates")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warning, error)")
	showVersion := fs.Bool("version", false, "print version information and exit")
	fs.Parse(args)
	cfg.NoGuess = !*guess
	if *all {
		cfg.Formats.EnableAll()
	}

	if *showVersion {
		fmt.Printf("graphsnap v%s\n", version)
		return 0
	}

	setupLogging(cfg.LogLevel)
	if cfgPath != "" {
		log.WithField("path", cfgPath).Debug("loaded config file")
	}

	if !cfg.Formats.Any() {
		log.Error("graphsnap usage error")
		fmt.Println("    At least one output type must be specified (or -all)!")
		fs.Usage()
		return 2
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid configuration")
		return 2
	}
	if *fixture == "" {
		log.Error("graphsnap usage error")
		fmt.Println("    A recorded graph fixture must be specified with -fixture!")
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	log.Info("initializing graph snapshot")

	specs, err := codec.LoadModel(cfg.EffectiveSpecInputDir(), codec.SpecificationBanks)
	if err != nil {
		log.WithError(err).Error("failed to input existing specification model")
		fmt.Println("     Run graphsnap workspace to generate a specification model")
		fmt.Println("        use the -spec option to set the input folder")
		fmt.Println("        yaml and json inputs are detected automatically")
		return 1
	}

	source, err := adapter.LoadStaticSource(*fixture)
	if err != nil {
		log.WithError(err).Error("failed to load graph fixture")
		return 1
	}

	sess := service.NewSession(source, adapter.NewPsutilSource(), service.Options{
		OwnNodeNames: []string{cfg.NodeName},
		Filter: filter.Options{
			DropDebug: !cfg.IncludeDebug,
			DropTF:    cfg.DropTransforms,
		},
		NoGuess:          cfg.NoGuess,
		ParameterTimeout: cfg.ParamTimeout.Duration(),
	})

	model, result, err := sess.Run(ctx, specs)
	if err != nil {
		log.WithError(err).Error("failed to extract model of the ROS system")
		return 1
	}

	failed := false
	target := cfg.EffectiveTargetDir()
	if cfg.Formats.YAML {
		dir := filepath.Join(target, "yaml")
		if err := saveBanks(codec.NewYAMLCodec(), dir, cfg.BaseName, model, specs, result.SpecificationUpdate); err != nil {
			log.WithError(err).Error("failed to save YAML files for the model")
			failed = true
		}
	}
	if cfg.Formats.JSON {
		dir := filepath.Join(target, "json")
		if err := saveBanks(codec.NewJSONCodec(), dir, cfg.BaseName, model, specs, result.SpecificationUpdate); err != nil {
			log.WithError(err).Error("failed to save JSON files for the model")
			failed = true
		}
	}
	if cfg.Formats.Human {
		dir := filepath.Join(target, "human")
		if err := saveReports(dir, cfg.BaseName, model, specs, result.SpecificationUpdate); err != nil {
			log.WithError(err).Error("failed to save human-readable files for the model")
			failed = true
		}
	}
	if cfg.Formats.Graph {
		dir := filepath.Join(target, "dot_graph")
		if err := codec.WriteDOTFile(model, dir, cfg.BaseName); err != nil {
			log.WithError(err).Error("failed to save the computation graph")
			failed = true
		}
	}
	if cfg.Formats.Archive {
		run := domain.Run{
			ID:          sess.ID().String(),
			Hostname:    localHostname(),
			StartedAt:   start,
			FinishedAt:  time.Now(),
			SpecUpdated: result.SpecificationUpdate,
		}
		if err := recordRun(ctx, cfg.EffectiveArchivePath(), run, archivedModel(model, specs)); err != nil {
			log.WithError(err).Error("failed to record the run in the snapshot archive")
			failed = true
		}
	}

	log.Infof("finished snapshot in %.3f seconds", time.Since(start).Seconds())
	printStatistics(specs, model)
	printRunReport(sess.Processes(), result.Unmatched)

	if failed {
		return 1
	}
	return 0
}

func runWorkspace(args []string) int {
	cfg, cfgPath, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "graphsnap: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("graphsnap workspace", flag.ExitOnError)
	all := fs.Bool("all", false, "output every format")
	fs.StringVar(&cfg.TargetDir, "target", cfg.TargetDir, "target output directory")
	fs.BoolVar(&cfg.Formats.YAML, "yaml", cfg.Formats.YAML || !cfg.Formats.Any(), "write YAML bank files")
	fs.BoolVar(&cfg.Formats.JSON, "json", cfg.Formats.JSON, "write JSON bank files")
	fs.BoolVar(&cfg.Formats.Human, "human", cfg.Formats.Human, "write human-readable bank reports")
	fs.StringVar(&cfg.BaseName, "base", cfg.BaseName, "output base file name")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warning, error)")
	showVersion := fs.Bool("version", false, "print version information and exit")
	fs.Parse(args)
	if *all {
		cfg.Formats.YAML = true
		cfg.Formats.JSON = true
		cfg.Formats.Human = true
	}

	if *showVersion {
		fmt.Printf("graphsnap v%s\n", version)
		return 0
	}

	setupLogging(cfg.LogLevel)
	if cfgPath != "" {
		log.WithField("path", cfgPath).Debug("loaded config file")
	}

	if !cfg.Formats.YAML && !cfg.Formats.JSON && !cfg.Formats.Human {
		log.Error("graphsnap usage error")
		fmt.Println("    At least one output type must be specified (or -all)!")
		fs.Usage()
		return 2
	}

	prefixes := fs.Args()
	if len(prefixes) == 0 {
		prefixes = defaultPrefixes()
	}
	if len(prefixes) == 0 {
		log.Warn("no install prefixes given and AMENT_PREFIX_PATH is empty")
	}

	start := time.Now()
	log.Info("initializing workspace modeler")

	specs, err := service.NewWorkspaceModeler().Crawl(prefixes)
	if err != nil {
		log.WithError(err).Error("failed to extract specifications for the workspace")
		return 1
	}

	failed := false
	target := cfg.EffectiveTargetDir()
	if cfg.Formats.YAML {
		dir := filepath.Join(target, "yaml")
		if err := codec.SaveModel(codec.NewYAMLCodec(), specs, dir, cfg.BaseName, codec.SpecificationBanks); err != nil {
			log.WithError(err).Error("failed to save YAML files for the model")
			failed = true
		}
	}
	if cfg.Formats.JSON {
		dir := filepath.Join(target, "json")
		if err := codec.SaveModel(codec.NewJSONCodec(), specs, dir, cfg.BaseName, codec.SpecificationBanks); err != nil {
			log.WithError(err).Error("failed to save JSON files for the model")
			failed = true
		}
	}
	if cfg.Formats.Human {
		dir := filepath.Join(target, "human")
		if err := codec.SaveModelText(specs, dir, cfg.BaseName, codec.SpecificationBanks); err != nil {
			log.WithError(err).Error("failed to save human-readable files for the model")
			failed = true
		}
	}

	log.Infof("finished workspace modeling in %.3f seconds", time.Since(start).Seconds())
	printWorkspaceStatistics(specs)

	if failed {
		return 1
	}
	return 0
}

// setupLogging configures the process-wide logger once; every package
// logs through it.
func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
		log.WithField("level", level).Warn("unknown log level, using info")
	}
	log.SetLevel(lvl)
}

// saveBanks writes the deployment banks, plus the specification banks
// when the run learned new specifications. Both halves share the
// directory and base name, so a later run can reconcile against the
// freshly learned model.
func saveBanks(c codec.Codec, dir, base string, deployment, specs *domain.Model, specUpdate bool) error {
	if err := codec.SaveModel(c, deployment, dir, base, codec.DeploymentBanks); err != nil {
		return err
	}
	if specUpdate {
		return codec.SaveModel(c, specs, dir, base, codec.SpecificationBanks)
	}
	return nil
}

// saveReports is saveBanks for the human-readable text format.
func saveReports(dir, base string, deployment, specs *domain.Model, specUpdate bool) error {
	if err := codec.SaveModelText(deployment, dir, base, codec.DeploymentBanks); err != nil {
		return err
	}
	if specUpdate {
		return codec.SaveModelText(specs, dir, base, codec.SpecificationBanks)
	}
	return nil
}

// recordRun appends the run and its banks to the snapshot archive.
func recordRun(ctx context.Context, path string, run domain.Run, m *domain.Model) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	arch, err := sqlite.New(path)
	if err != nil {
		return err
	}
	defer arch.Close()
	return arch.RecordRun(ctx, run, m)
}

// archivedModel pairs the run's deployment banks with the specification
// banks it was reconciled against.
func archivedModel(deployment, specs *domain.Model) *domain.Model {
	m := domain.NewModel()
	m.Nodes = deployment.Nodes
	m.Topics = deployment.Topics
	m.Actions = deployment.Actions
	m.Services = deployment.Services
	m.Parameters = deployment.Parameters
	m.Machines = deployment.Machines
	m.PackageSpecifications = specs.PackageSpecifications
	m.NodeSpecifications = specs.NodeSpecifications
	m.MessageSpecifications = specs.MessageSpecifications
	m.ServiceSpecifications = specs.ServiceSpecifications
	m.ActionSpecifications = specs.ActionSpecifications
	return m
}

// printStatistics summarizes entity counts per bank, specifications
// first.
func printStatistics(specs, deployment *domain.Model) {
	specStats := specs.Stats()
	fmt.Println("     --- Specifications ---")
	for _, kind := range domain.SpecificationBankKinds {
		fmt.Printf("     %4d  items in %s\n", specStats[kind], kind.OutputName())
	}
	deployStats := deployment.Stats()
	fmt.Println("     --- Deployment ---")
	for _, kind := range domain.DeploymentBankKinds {
		fmt.Printf("     %4d items in %s\n", deployStats[kind], kind.OutputName())
	}
}

func printWorkspaceStatistics(specs *domain.Model) {
	stats := specs.Stats()
	fmt.Println("------ Specifications ------")
	for _, kind := range domain.SpecificationBankKinds {
		fmt.Printf("     %4d  items in %s\n", stats[kind], kind.OutputName())
	}
}

// printRunReport lists every process the matcher claimed, then the nodes
// and leftover processes it could not pair up.
func printRunReport(arena *builder.ProcessArena, unmatched []service.UnmatchedNode) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 30))
	log.Info("matched executables")
	for _, c := range arena.Assigned() {
		rec := c.Record
		fmt.Printf("\t  - %s %d %s <%s> %s %s \n",
			rec.Reason, rec.PID, rec.Name, c.Assigned, rec.Exe, strings.Join(rec.Cmdline, " "))
	}
	if len(unmatched) > 0 {
		log.Warn("unmatched nodes exist")
		fmt.Println("\tUnmatched Nodes:")
		for _, node := range unmatched {
			fmt.Printf("\t  - %s\n", node.NodeName)
		}
		fmt.Println("\tUnmatched Executables:")
		for _, c := range arena.Unassigned() {
			rec := c.Record
			fmt.Printf("\t  - %s %d %s %s %s\n",
				rec.Reason, rec.PID, rec.Name, rec.Exe, strings.Join(rec.Cmdline, " "))
		}
	}
	fmt.Println(strings.Repeat("=", 30))
}

// localHostname mirrors the session's hostname default for the archive
// row.
func localHostname() string {
	if hostname, err := os.Hostname(); err == nil {
		return hostname
	}
	return "localhost"
}

// defaultPrefixes returns the install prefixes named by the ament index
// environment, the same roots a sourced ROS shell resolves packages
// from.
func defaultPrefixes() []string {
	var out []string
	for _, p := range strings.Split(os.Getenv("AMENT_PREFIX_PATH"), string(os.PathListSeparator)) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
