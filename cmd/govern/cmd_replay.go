package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bridgeos/govern/internal/format"
	"github.com/bridgeos/govern/internal/logging"
	"github.com/bridgeos/govern/internal/replay"
)

var replayFlags struct {
	outDir   string
	workers  int
	markdown bool
}

var replayCmd = &cobra.Command{
	Use:   "replay FIXTURE...",
	Short: "Replay scripted fixtures and check every step's expected outcome",
	Long: "Replay runs each fixture (JSON or YAML) against a fixed clock. Fixtures run\n" +
		"concurrently; each writes <name>.transcript.jsonl and <name>.timeline.md to --out.",
	Args: cobra.MinimumNArgs(1),
	RunE: runReplay,
}

func init() {
	f := replayCmd.Flags()
	f.StringVarP(&replayFlags.outDir, "out", "o", "", "directory for transcripts and timelines")
	f.IntVar(&replayFlags.workers, "workers", 0, "fixtures replayed in parallel (default GOVERN_REPLAY_WORKERS)")
	f.BoolVar(&replayFlags.markdown, "markdown", false, "print the summary as a Markdown table")
}

func runReplay(cmd *cobra.Command, args []string) error {
	workers := replayFlags.workers
	if workers <= 0 {
		workers = cfg.ReplayWorkers
	}
	if replayFlags.outDir != "" {
		if err := os.MkdirAll(replayFlags.outDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", replayFlags.outDir, err)
		}
	}

	log := logging.New("replay")
	rows := make([]format.ReplayRow, len(args))

	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(workers)
	for i, path := range args {
		g.Go(func() error {
			f, err := replay.LoadFixture(path)
			if err != nil {
				return err
			}
			run := replay.Replay(f, replay.NewEvaluator(f))
			s := replay.Summarize(run)
			name := fixtureName(path)
			rows[i] = format.ReplayRow{
				Fixture:        name,
				Total:          s.Total,
				Allowed:        s.Allowed,
				Denied:         s.Denied,
				Mismatches:     s.Mismatches,
				FinalState:     s.FinalState,
				FinalStoplight: string(s.FinalStoplight),
			}
			log.Info("fixture replayed", "fixture", name, "steps", s.Total, "mismatches", s.Mismatches)

			if replayFlags.outDir == "" {
				return nil
			}
			return writeReplayOutputs(replayFlags.outDir, name, run)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	mode := format.ASCII
	if replayFlags.markdown {
		mode = format.Markdown
	}
	fmt.Fprintln(cmd.OutOrStdout(), format.Replays(mode, rows))

	var mismatches int
	for _, r := range rows {
		mismatches += r.Mismatches
	}
	if mismatches > 0 {
		return fmt.Errorf("%d step(s) did not match their expected outcome", mismatches)
	}
	return nil
}

func writeReplayOutputs(dir, name string, run replay.Run) error {
	tf, err := os.Create(filepath.Join(dir, name+".transcript.jsonl"))
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	defer tf.Close()
	if err := replay.WriteTranscript(tf, run); err != nil {
		return err
	}

	mf, err := os.Create(filepath.Join(dir, name+".timeline.md"))
	if err != nil {
		return fmt.Errorf("create timeline: %w", err)
	}
	defer mf.Close()
	return replay.WriteTimeline(mf, run)
}

func fixtureName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
