package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile with the tasks you created and those assigned to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogin(cmd, f, func(a *app) error {
				p, err := a.svc.Profile(commandContext(cmd))
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, p)
				}
				fmt.Fprintf(a.out, "%s (#%d) %s\n", p.User.Username, p.User.ID, p.User.Email)
				fmt.Fprintf(a.out, "\nCreated by me (%d)\n", len(p.Created))
				if err := writeTaskTable(a.out, p.Created); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "\nAssigned to me (%d)\n", len(p.Assigned))
				return writeTaskTable(a.out, p.Assigned)
			})
		},
	}
}
