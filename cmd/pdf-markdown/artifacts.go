// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-markdown/internal/artifact"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts [run-id]",
	Short: "List recorded conversion runs and their artifacts",
	Long: `List recorded conversion runs, newest first. With a run ID, list that
run's intermediate artifacts in batch order.

--export writes a YAML manifest of the run (artifacts and table-of-contents
lines) and --show prints the content of one stage for every batch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArtifacts,
}

func init() {
	artifactsCmd.Flags().Bool("json", false, "output as JSON")
	artifactsCmd.Flags().Bool("export", false, "write the run's YAML manifest (requires run-id)")
	artifactsCmd.Flags().String("show", "", "print the content of this stage for every batch (requires run-id)")
	rootCmd.AddCommand(artifactsCmd)
}

func runArtifacts(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := artifact.Open(cfg.Artifacts.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	export, _ := cmd.Flags().GetBool("export")
	show, _ := cmd.Flags().GetString("show")

	if len(args) == 0 {
		if export || show != "" {
			return fmt.Errorf("--export and --show require a run ID")
		}
		runs, err := store.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, runs)
		}
		formatRuns(out, runs)
		return nil
	}

	runID := args[0]
	if export {
		return store.Export(cmd.Context(), runID, out)
	}

	items, err := store.Artifacts(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if show != "" {
		return showStage(out, store, items, artifact.Stage(show))
	}
	if jsonOutput {
		return writeJSON(out, items)
	}
	formatArtifacts(out, runID, items)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRuns(w io.Writer, runs []artifact.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-30s  %-5s  %-9s  %s\n", "Run", "Document", "Mode", "Status", "Started")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		doc := r.Document
		if len(doc) > 30 {
			doc = doc[:27] + "..."
		}
		fmt.Fprintf(w, "%-36s  %-30s  %-5s  %-9s  %s\n",
			r.ID, doc, r.Mode, r.Status, r.StartedAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
}

func formatArtifacts(w io.Writer, runID string, items []artifact.Artifact) {
	if len(items) == 0 {
		fmt.Fprintf(w, "No artifacts for run %s.\n", runID)
		return
	}

	fmt.Fprintf(w, "%-5s  %-16s  %-8s  %s\n", "Batch", "Stage", "Bytes", "Path")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, a := range items {
		fmt.Fprintf(w, "%-5d  %-16s  %-8d  %s\n", a.Batch, a.Stage, a.Bytes, a.Path)
	}
	fmt.Fprintf(w, "\n%d artifacts\n", len(items))
}

func showStage(w io.Writer, store *artifact.Store, items []artifact.Artifact, stage artifact.Stage) error {
	shown := 0
	for _, a := range items {
		if a.Stage != stage {
			continue
		}
		content, err := store.Read(a)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "=== batch %d (%s) ===\n%s\n", a.Batch, a.Stage, content)
		shown++
	}
	if shown == 0 {
		return fmt.Errorf("no %s artifacts in run", stage)
	}
	return nil
}
