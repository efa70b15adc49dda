package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ashureev/scam-honeypot/internal/detect"
	"github.com/ashureev/scam-honeypot/internal/domain"
)

type classifyResult struct {
	detect.Result
	FastPath       bool    `json:"fastPath"`
	RuleConfidence float64 `json:"ruleConfidence"`
}

func newClassifyCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Run the keyword and rule classifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
			c := detect.NewClassifier(nil, detect.Options{}, quiet)
			fast, _ := detect.FastPath(text)
			res := classifyResult{
				Result:         c.Classify(cmd.Context(), text, nil, domain.Metadata{}),
				FastPath:       fast,
				RuleConfidence: c.RuleConfidence(text),
			}

			out := cmd.OutOrStdout()
			if opts.format == FormatJSON {
				return writeJSON(out, res)
			}
			_, err = fmt.Fprintf(out, "scam:       %t\nconfidence: %.2f\nsource:     %s\nfast path:  %t\nrules:      %.2f\n",
				res.IsScam, res.Confidence, res.Source, res.FastPath, res.RuleConfidence)
			return err
		},
	}
	return cmd
}
