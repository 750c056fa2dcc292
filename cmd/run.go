package cmd

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mawngo/kcluster/internal/config"
	"github.com/mawngo/kcluster/internal/render"
	"github.com/mawngo/kcluster/internal/service"
)

func newRunCommand(f *flags, cfg *config.Config) *cobra.Command {
	command := &cobra.Command{
		Use:   "run",
		Short: "Cluster the corpus once and print the groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadCorpus(*cfg)
			if err != nil {
				return err
			}
			clusterer := service.NewClusterer(c,
				service.WithSeed(cfg.KMeans.Seed),
				service.WithMaxIterations(cfg.KMeans.MaxIterations))

			res, err := clusterer.Cluster(cmd.Context(), f.Clusters, f.Iterations)
			if err != nil {
				return err
			}

			if f.HTML != "" {
				if err := writeFile(f.HTML, res.Groups, render.HTML); err != nil {
					return err
				}
			}
			if f.PNG != "" {
				if err := writeFile(f.PNG, res.Groups, render.PNG); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if f.JSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Groups)
			}
			return render.Text(out, res.Groups)
		},
	}

	command.Flags().IntVarP(&f.Clusters, "clusters", "k", f.Clusters, "Number of clusters")
	command.Flags().IntVarP(&f.Iterations, "iterations", "i", f.Iterations, "Number of k-means rounds, always run in full")
	command.Flags().BoolVar(&f.JSON, "json", f.JSON, "Print the groups as JSON")
	command.Flags().StringVar(&f.HTML, "html", f.HTML, "Also write an HTML chart of the cluster sizes to this file")
	command.Flags().StringVar(&f.PNG, "png", f.PNG, "Also write a PNG chart of the cluster sizes to this file")
	command.Flags().SortFlags = false
	return command
}

func writeFile(path string, groups [][]string, fn func(io.Writer, [][]string) error) error {
	o, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err := o.Close()
		if err != nil {
			slog.Error("Error closing output file",
				slog.String("out", path),
				slog.Any("err", err))
		}
	}()
	if err := fn(o, groups); err != nil {
		return err
	}
	slog.Info("Chart written", slog.String("out", path))
	return nil
}
