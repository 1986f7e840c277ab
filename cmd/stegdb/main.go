// Command stegdb manages stegdb databases from the command line.
//
// Usage:
//
//	stegdb --db cover.png init
//	stegdb --db cover.png create users
//	stegdb --db cover.png insert users '{"name":"ada","age":36}'
//	stegdb --db cover.png find users '{"age":{"$gte":18}}' --projection '{"name":1}'
//	stegdb --db cover.png update users '{"name":"ada"}' '{"$set":{"age":37}}'
//	stegdb --db cover.png delete users '{"name":"ada"}'
//	stegdb --db cover.png snapshot
//	stegdb --db cover.png restore data/snap1718000000000.bck
//
// Flags override values from ~/.stegdb.yaml or the file given with --config.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a.registry != nil {
		if derr := dumpMetrics(stderr, a.registry); derr != nil && err == nil {
			err = derr
		}
	}
	if err != nil {
		return printError(stderr, err)
	}
	return exitOK
}

type app struct {
	configPath  string
	dbPath      string
	compression string
	codecName   string
	logLevel    string
	snapshotDir string
	metrics     bool
	noColor     bool

	cfg      Config
	registry *prometheus.Registry
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "stegdb",
		Short:         "Embedded document database hidden in an image",
		Long:          `A command-line interface for stegdb databases stored in PNG/BMP images or plain files.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/"+DefaultConfigName+")")
	flags.StringVar(&a.dbPath, "db", "", "database path (.png/.bmp for an image, anything else for a plain file)")
	flags.StringVar(&a.compression, "compression", "", "content compression: none, lz4 or zstd")
	flags.StringVar(&a.codecName, "codec", "", "serialization codec: json or go-json")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.snapshotDir, "snapshot-dir", "", "directory for snapshot files")
	flags.BoolVar(&a.metrics, "metrics", false, "print Prometheus metrics to stderr on exit")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newInitCmd(a),
		newCollectionsCmd(a),
		newCreateCmd(a),
		newInsertCmd(a),
		newFindCmd(a),
		newCountCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newDropCmd(a),
		newDropDBCmd(a),
		newDumpCmd(a),
		newSnapshotCmd(a),
		newRestoreCmd(a),
	)
	return root
}

// configure loads the config file and applies flag overrides.
func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return &usageError{msg: "invalid configuration", err: err}
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = a.dbPath
	}
	if flags.Changed("compression") {
		cfg.Compression = a.compression
	}
	if flags.Changed("codec") {
		cfg.Codec = a.codecName
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("snapshot-dir") {
		cfg.SnapshotDir = a.snapshotDir
	}
	a.cfg = cfg

	if a.noColor {
		color.NoColor = true
	}
	if a.metrics {
		a.registry = prometheus.NewRegistry()
	}
	return nil
}

func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
