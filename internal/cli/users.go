package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newUsersCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "List users and show user details",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogin(cmd, f, func(a *app) error {
				users, err := a.client.ListUsers(commandContext(cmd))
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, map[string]any{"users": users})
				}
				return writeUserTable(a.out, users)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			return withLogin(cmd, f, func(a *app) error {
				u, err := a.client.GetUser(commandContext(cmd), id)
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, map[string]any{"user": u})
				}
				tw := newTable(a.out)
				fmt.Fprintf(tw, "ID:\t%d\n", u.ID)
				fmt.Fprintf(tw, "Username:\t%s\n", u.Username)
				fmt.Fprintf(tw, "Email:\t%s\n", orDash(u.Email))
				fmt.Fprintf(tw, "Joined:\t%s\n", orDash(u.CreatedAt))
				return tw.Flush()
			})
		},
	})
	return cmd
}
