// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-markdown/internal/continuation"
	"github.com/pdiddy/pdf-markdown/internal/prompts"
)

var replyCmd = &cobra.Command{
	Use:   "reply <raw-reply-file>",
	Short: "Process a saved text-mode reply offline",
	Long: `Run the continuation processor over a saved raw model reply.

The batch Markdown is printed to stdout. The prompt for the next batch is
written to --prompt-out, or to stderr when unset. With --state the parsed
continuation state is printed to stderr as YAML.

The template is the built-in text prompt unless --template names a file.
Use "-" as the reply file to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runReply,
}

func init() {
	replyCmd.Flags().String("template", "", "prompt template file (default: built-in text prompt)")
	replyCmd.Flags().String("prompt-out", "", "write the next prompt to this file")
	replyCmd.Flags().Bool("state", false, "print the parsed state as YAML to stderr")
	rootCmd.AddCommand(replyCmd)
}

func runReply(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	template, err := replyTemplate(cmd)
	if err != nil {
		return err
	}

	res := continuation.ProcessResult(raw, template)
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSuffix(res.Markdown, "\n"))

	if out, _ := cmd.Flags().GetString("prompt-out"); out != "" {
		if err := os.WriteFile(out, []byte(res.Prompt), 0o644); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), strings.TrimSuffix(res.Prompt, "\n"))
	}

	if show, _ := cmd.Flags().GetBool("state"); show {
		if !res.HasState {
			fmt.Fprintln(cmd.ErrOrStderr(), "# no state section found; defaults used")
		}
		enc := yaml.NewEncoder(cmd.ErrOrStderr())
		enc.SetIndent(2)
		if err := enc.Encode(&res.State); err != nil {
			return fmt.Errorf("encoding state: %w", err)
		}
		return enc.Close()
	}
	return nil
}

func replyTemplate(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("template")
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading template: %w", err)
		}
		return string(data), nil
	}
	set, err := prompts.Load(loadConfig().Conversion.PromptsDir)
	if err != nil {
		return "", err
	}
	return set.Text, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
