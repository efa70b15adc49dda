// Package cli implements the honeyscan offline analysis commands. Nothing here
// touches the network: classification runs the keyword and rule paths only.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

type options struct {
	format string
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "honeyscan",
		Short:         "Offline scam message analysis",
		Long:          "honeyscan runs the honeypot's extractor, classifier and tone detector on text from arguments or stdin, without calling any generation backend.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch opts.format {
			case FormatJSON, FormatText:
				return nil
			default:
				return fmt.Errorf("unknown format %q (want %s or %s)", opts.format, FormatJSON, FormatText)
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", FormatJSON, "Output format: json or text")

	rootCmd.AddCommand(
		newScanCmd(opts),
		newClassifyCmd(opts),
		newToneCmd(opts),
		newPersonasCmd(opts),
	)
	return rootCmd
}

// inputText joins args, or reads stdin when there are none.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", fmt.Errorf("no input: pass text as arguments or on stdin")
	}
	return text, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
