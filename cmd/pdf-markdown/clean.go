// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-markdown/internal/markers"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Strip marker blocks from a saved model reply",
	Long: `Remove [[NAME START]] ... [[NAME END]] marker blocks from a saved model reply and
print the cleaned text to stdout.

Lines inside the reserved table-of-contents block are printed to stderr.
With --keep-toc they stay in the cleaned text instead. Use "-" to read
from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().Bool("keep-toc", false, "keep table-of-contents lines in the output")
	cleanCmd.Flags().Bool("check", false, "exit with an error when the cleaned text has no meaningful content")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	var cleaned string
	if keep, _ := cmd.Flags().GetBool("keep-toc"); keep {
		cleaned = markers.Clean(text)
	} else {
		var toc []string
		cleaned, toc = markers.CleanAndExtractTOC(text)
		for _, line := range toc {
			fmt.Fprintln(cmd.ErrOrStderr(), line)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), cleaned)

	if check, _ := cmd.Flags().GetBool("check"); check && !markers.HasMeaningfulContent(cleaned) {
		return fmt.Errorf("no meaningful content in %s", args[0])
	}
	return nil
}
