package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cfgpkg "github.com/norm/odyssey-ingest/internal/config"
	"github.com/norm/odyssey-ingest/internal/diag"
	"github.com/norm/odyssey-ingest/internal/episode"
	"github.com/norm/odyssey-ingest/internal/ingest"
	"github.com/norm/odyssey-ingest/internal/sink"
	"github.com/norm/odyssey-ingest/internal/summarize"
	"github.com/norm/odyssey-ingest/internal/watcher"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "odyssey-ingest",
		Short:         "Convert GUI-Odyssey episode traces into normalized annotation samples",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (TOML)")
	root.AddCommand(convertCmd(), watchCmd(), summarizeCmd())

	if err := root.Execute(); err != nil {
		log.Printf("odyssey-ingest: %v", err)
		os.Exit(1)
	}
}

func loadConfig() (*cfgpkg.Config, error) {
	if configPath != "" {
		return cfgpkg.LoadFromPath(configPath)
	}
	return cfgpkg.Load()
}

func convertCmd() *cobra.Command {
	var splits []string
	var limit int

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Batch-convert the configured splits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(splits) > 0 {
				cfg.Splits = splits
			}
			if limit > 0 {
				cfg.LimitEpisodes = limit
			}

			ctx, cancel := signalContext()
			defer cancel()

			runner := ingest.New(cfg, diag.NewEventLog(cfg.LogDir))
			results, err := runner.Run(ctx, cfg.Splits)
			for _, res := range results {
				fmt.Printf("%s: %d episodes, %d samples (%d episodes failed) -> %s\n",
					res.Split, res.Episodes, res.Samples, res.Failed, res.OutputPath)
			}
			return err
		},
	}

	cmd.Flags().StringSliceVar(&splits, "split", nil, "split to convert (repeatable; overrides config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max episodes per split (prefix of manifest order)")
	return cmd
}

func watchCmd() *cobra.Command {
	var splitName string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the annotations directory and convert files as they land",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			events := diag.NewEventLog(cfg.LogDir)
			runner := ingest.New(cfg, events)
			writer := sink.NewWriter(cfg.OutputDir, splitName)

			w, err := watcher.New(cfg.AnnotationsDir())
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, cancel := signalContext()
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				if err := w.Start(ctx); err != nil {
					errCh <- err
				}
			}()

			if err := events.Log(diag.NewEvent(diag.EventTypeWatchStarted, "").
				WithPath(cfg.AnnotationsDir())); err != nil {
				log.Printf("warning: diag log: %v", err)
			}
			log.Printf("watching %s", cfg.AnnotationsDir())

			for {
				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
					return nil
				case path, ok := <-w.Paths():
					if !ok {
						return nil
					}
					count, err := runner.IngestFile(path, writer)
					if err != nil {
						log.Printf("warning: %s: %v (skipping episode)", path, err)
						continue
					}
					log.Printf("%s: %d samples -> %s", path, count, writer.Path())
				}
			}
		},
	}

	cmd.Flags().StringVar(&splitName, "split", "watch", "output split name for watched episodes")
	return cmd
}

func summarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <annotation-file>",
		Short: "Summarize an episode's trajectory with Claude Haiku",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			doc, err := episode.Load(args[0])
			if err != nil {
				return err
			}

			sumCfg := summarize.DefaultConfig()
			if cfg.Summary.Model != "" {
				sumCfg.Model = cfg.Summary.Model
			}
			if cfg.Summary.MaxTokens > 0 {
				sumCfg.MaxTokens = cfg.Summary.MaxTokens
			}

			client, err := summarize.New(sumCfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			summary, err := client.SummarizeEpisode(ctx, doc)
			if err != nil {
				return err
			}
			fmt.Println(summary)
			return nil
		},
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()
	return ctx, cancel
}
