package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/persona"
)

func newPersonasCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "personas [id]",
		Short: "List the built-in victim personas, or show one by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := persona.Default(nil)
			if err != nil {
				return err
			}
			all := reg.All()
			if len(args) == 1 {
				p, ok := reg.Get(args[0])
				if !ok {
					return fmt.Errorf("unknown persona %q", args[0])
				}
				all = []domain.Persona{p}
			}

			out := cmd.OutOrStdout()
			if opts.format == FormatJSON {
				return writeJSON(out, all)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tAGE\tTECH\tBACKGROUND")
			for _, p := range all {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", p.ID, p.Name, p.Age, p.TechFamiliarity, p.Background)
			}
			return tw.Flush()
		},
	}
}
