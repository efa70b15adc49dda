package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/strategy"
	"github.com/ashureev/scam-honeypot/internal/tone"
)

type toneResult struct {
	Tone        domain.Tone          `json:"tone"`
	Polarity    float64              `json:"polarity"`
	Directive   domain.DirectiveKind `json:"directive"`
	Instruction string               `json:"instruction"`
}

func newToneCmd(opts *options) *cobra.Command {
	var turn int
	cmd := &cobra.Command{
		Use:   "tone [text...]",
		Short: "Detect tone and show the directive the agent would follow",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			t := tone.Classify(text)
			d := strategy.Select(t, turn, nil)
			res := toneResult{Tone: t, Polarity: tone.Polarity(text), Directive: d.Kind, Instruction: d.Instruction}

			out := cmd.OutOrStdout()
			if opts.format == FormatJSON {
				return writeJSON(out, res)
			}
			_, err = fmt.Fprintf(out, "tone:       %s\npolarity:   %.2f\ndirective:  %s\n%s\n",
				res.Tone, res.Polarity, res.Directive, res.Instruction)
			return err
		},
	}
	cmd.Flags().IntVar(&turn, "turn", 1, "Turn number used to pick the directive tier")
	return cmd
}
