package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashureev/scam-honeypot/internal/extract"
)

func newScanCmd(opts *options) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "scan [text...]",
		Short: "Extract bank accounts, payment handles, phones, links and keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			mode := extract.ModeLenient
			if strict {
				mode = extract.ModeStrict
			}
			got := extract.Extract(text, mode).Normalize()

			out := cmd.OutOrStdout()
			if opts.format == FormatJSON {
				return writeJSON(out, got)
			}
			_, err = fmt.Fprintf(out,
				"mode:       %s\nbank:       %s\nupi:        %s\nphones:     %s\nlinks:      %s\nkeywords:   %s\n",
				mode,
				joinOrDash(got.BankAccounts),
				joinOrDash(got.UPIIDs),
				joinOrDash(got.PhoneNumbers),
				joinOrDash(got.PhishingLinks),
				joinOrDash(got.SuspiciousKeywords),
			)
			return err
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Keep only handles on known payment providers")
	return cmd
}
