package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-mapping-service/pkg/arch"
	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
	"github.com/gilchrisn/graph-mapping-service/pkg/mapper"
	"github.com/gilchrisn/graph-mapping-service/pkg/mapping"
)

var version = "dev"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gmap",
		Short:        "gmap maps graphs onto target architectures by recursive bipartitioning",
		Version:      version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringP("arch", "a", "cmplt 2", "Target architecture, e.g. \"cmplt 8\", \"mesh2D 4 4\", \"vcmplt\"")

	cmd.AddCommand(mapCmd())
	cmd.AddCommand(statsCmd())
	cmd.AddCommand(checkCmd())
	return cmd
}

func loadInputs(cmd *cobra.Command, graphFile string) (*graph.Graph, arch.Arch, error) {
	archText, err := cmd.Flags().GetString("arch")
	if err != nil {
		return nil, nil, err
	}
	a, err := arch.Parse(archText)
	if err != nil {
		return nil, nil, err
	}
	g, err := graph.LoadEdgeList(graphFile)
	if err != nil {
		return nil, nil, err
	}
	return g, a, nil
}

func mapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <graph-file>",
		Short: "Compute a mapping of an edge list graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, a, err := loadInputs(cmd, args[0])
			if err != nil {
				return err
			}

			config := mapper.NewConfig()
			config.SetLogOutput(cmd.ErrOrStderr())
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				if err := config.LoadFromFile(path); err != nil {
					return fmt.Errorf("failed to load config %s: %w", path, err)
				}
			}
			overrides := map[string]string{
				"strategy": "mapping.strategy",
				"sep":      "mapping.bipart_strategy",
				"policy":   "mapping.policy",
				"seed":     "algorithm.random_seed",
				"parallel": "mapping.parallel",
				"untied":   "mapping.job_tie",
				"log":      "logging.level",
				"moves":    "analysis.output_file",
			}
			for flag, key := range overrides {
				f := cmd.Flags().Lookup(flag)
				if f == nil || !f.Changed {
					continue
				}
				switch flag {
				case "untied":
					untied, _ := cmd.Flags().GetBool(flag)
					config.Set("mapping.job_tie", !untied)
					config.Set("mapping.map_tie", !untied)
				case "moves":
					config.Set("analysis.track_moves", true)
					config.Set(key, f.Value.String())
				default:
					config.Set(key, f.Value.String())
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().
				Str("graph", args[0]).
				Int("vertices", g.VertNbr).
				Str("architecture", a.String()).
				Msg("Mapping graph")

			res, err := mapper.Run(ctx, g, a, config)
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				if err := res.Mapping.Write(cmd.OutOrStdout()); err != nil {
					return err
				}
			} else {
				if err := res.Mapping.Save(out); err != nil {
					return err
				}
				log.Info().Str("file", out).Msg("Mapping saved")
			}
			return writeJSON(cmd.ErrOrStderr(), res)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Mapping output file, gzip-compressed when ending in .gz (default stdout)")
	cmd.Flags().StringP("config", "c", "", "Configuration file")
	cmd.Flags().StringP("strategy", "s", "", "Mapping strategy, e.g. \"r{poli=S,sep=m{vert=80}}\"")
	cmd.Flags().String("sep", "", "Bipartitioning strategy used by the default mapping strategy")
	cmd.Flags().String("policy", "ngsize", "Job selection policy: random, level, size, nglevel, ngsize or old")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().Bool("parallel", false, "Map the two halves of the architecture concurrently (with --untied)")
	cmd.Flags().Bool("untied", false, "Map the two halves of the architecture independently")
	cmd.Flags().String("log", "info", "Log level")
	cmd.Flags().String("moves", "", "Write refinement moves to this JSON lines file")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <graph-file> <mapping-file>",
		Short: "Print load and communication statistics of a mapping",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, a, err := loadInputs(cmd, args[0])
			if err != nil {
				return err
			}
			m, err := mapping.Load(args[1], g, a)
			if err != nil {
				return err
			}
			if err := m.Validate(); err != nil {
				log.Warn().Err(err).Msg("Mapping is incomplete")
			}
			return writeJSON(cmd.OutOrStdout(), m.Stats())
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <graph-file>",
		Short: "Check the consistency of a graph and report its connected components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.LoadEdgeList(args[0])
			if err != nil {
				return err
			}
			if err := g.Check(); err != nil {
				return err
			}
			comps := g.Components()
			largest := 0
			for _, c := range comps {
				largest = max(largest, len(c))
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"vertices":          g.VertNbr,
				"edges":             g.EdgeNbr / 2,
				"load":              g.VeloSum,
				"components":        len(comps),
				"largest_component": largest,
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
