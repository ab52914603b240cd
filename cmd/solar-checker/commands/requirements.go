package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"solar-checker/internal/documents"
)

func requirementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requirements <financing method>",
		Short: "List the documents a financing method needs",
		Example: "  solar-checker requirements \"PPA Monthly\"\n" +
			"  solar-checker requirements loan",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if m, ok := documents.ParseMethod(name); ok {
				name = string(m)
			}
			out := cmd.OutOrStdout()
			reqs := documents.RequirementsFor(name)
			if len(reqs) == 0 {
				fmt.Fprintf(out, "%s: no documents required\n", name)
				return nil
			}
			fmt.Fprintf(out, "%s:\n", name)
			for _, r := range reqs {
				flag := "required"
				if !r.Required {
					flag = "optional"
				}
				fmt.Fprintf(out, "  %-22s %-9s %s\n", r.ID, flag, r.Title)
			}
			return nil
		},
	}
	return cmd
}
