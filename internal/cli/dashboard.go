package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDashboardCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize tasks by status, assignment and proximity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogin(cmd, f, func(a *app) error {
				d, err := a.svc.Dashboard(commandContext(cmd))
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, d)
				}

				tw := newTable(a.out)
				fmt.Fprintf(tw, "Total tasks:\t%d\n", d.Total)
				fmt.Fprintf(tw, "Pending:\t%d\n", d.Pending)
				fmt.Fprintf(tw, "In progress:\t%d\n", d.InProgress)
				fmt.Fprintf(tw, "Done:\t%d\n", d.Done)
				fmt.Fprintf(tw, "Assigned to me:\t%d\n", d.AssignedToMe)
				nearby := "unavailable"
				if d.Nearby != nil {
					nearby = fmt.Sprint(*d.Nearby)
				}
				fmt.Fprintf(tw, "Nearby:\t%s (%s center %s)\n", nearby, d.CenterSource, formatCoordinate(d.NearbyCenter))
				if err := tw.Flush(); err != nil {
					return err
				}

				fmt.Fprintln(a.out, "\nRecent tasks")
				return writeTaskTable(a.out, d.Recent)
			})
		},
	}
}
