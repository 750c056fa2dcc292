package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"

	"github.com/mawngo/kcluster/internal/config"
	"github.com/mawngo/kcluster/internal/corpus"
	"github.com/mawngo/kcluster/internal/kmeans"
)

func Init() *slog.LevelVar {
	level := &slog.LevelVar{}
	logger := slog.New(
		console.NewHandler(os.Stderr, &console.HandlerOptions{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	slog.SetDefault(logger)
	cobra.EnableCommandSorting = false
	return level
}

type CLI struct {
	command *cobra.Command
}

// NewCLI create new CLI instance and set up application config.
func NewCLI() *CLI {
	level := Init()

	f := flags{
		Clusters:   5,
		Iterations: 10,
	}
	cfg := config.Default()

	command := cobra.Command{
		Use:           "kcluster",
		Short:         "Cluster documents by word counts using k-means with Pearson distance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return err
			}
			if debug {
				level.Set(slog.LevelDebug)
			}

			loaded, err := config.Load(f.Config)
			if err != nil {
				return err
			}
			cfg = f.override(cmd, loaded)
			return cfg.Validate()
		},
	}

	command.PersistentFlags().Bool("debug", false, "Enable debug mode")
	command.PersistentFlags().StringVarP(&f.Config, "config", "c", f.Config, "Config file (default "+config.DefaultFile+" if present)")
	command.PersistentFlags().StringVarP(&f.Data, "data", "d", cfg.Data.Path, "Word count file, one document per row")
	command.PersistentFlags().StringVar(&f.Separator, "separator", cfg.Data.Separator, "Column separator of the data file")
	command.PersistentFlags().StringVar(&f.NameColumn, "name-column", cfg.Data.NameColumn, "Header of the document name column")
	command.PersistentFlags().Int64Var(&f.Seed, "seed", cfg.KMeans.Seed, "Seed for centroid initialization [0=random]")

	command.AddCommand(newRunCommand(&f, &cfg), newServeCommand(&f, &cfg))
	return &CLI{&command}
}

type flags struct {
	Config     string
	Data       string
	Separator  string
	NameColumn string
	Seed       int64

	Clusters   int
	Iterations int
	JSON       bool
	HTML       string
	PNG        string

	Addr string
}

// override applies the flags the user set explicitly on top of cfg.
func (f flags) override(cmd *cobra.Command, cfg config.Config) config.Config {
	if cmd.Flags().Changed("data") {
		cfg.Data.Path = f.Data
	}
	if cmd.Flags().Changed("separator") {
		cfg.Data.Separator = f.Separator
	}
	if cmd.Flags().Changed("name-column") {
		cfg.Data.NameColumn = f.NameColumn
	}
	if cmd.Flags().Changed("seed") {
		cfg.KMeans.Seed = f.Seed
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = f.Addr
	}
	return cfg
}

func loadCorpus(cfg config.Config) (*kmeans.Corpus, error) {
	now := time.Now()
	c, err := corpus.Load(cfg.Data.Path, corpus.Options{
		Separator:  cfg.Data.SeparatorRune(),
		NameColumn: cfg.Data.NameColumn,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded corpus",
		slog.String("path", cfg.Data.Path),
		slog.Int("documents", c.Len()),
		slog.Int("features", c.Dim()),
		slog.Duration("took", time.Since(now)))
	return c, nil
}

func (cli *CLI) Execute() {
	if err := cli.command.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
