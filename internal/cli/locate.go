package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/geotask/pkg/geo"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

type locateResult struct {
	types.Coordinate
	Geohash string `json:"geohash"`
}

func newLocateCmd(f *rootFlags) *cobra.Command {
	var (
		timeout time.Duration
		maxAge  time.Duration
		fresh   bool
	)
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Print the current position",
		Long: "Acquire the current position from the configured location source.\n" +
			"A cached fix younger than --max-age is reused unless --fresh is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := a.locator.Options()
			if cmd.Flags().Changed("timeout") {
				opts.Timeout = timeout
			}
			if cmd.Flags().Changed("max-age") {
				opts.MaximumAge = maxAge
			}
			if fresh {
				opts.MaximumAge = 0
			}

			c, err := a.locator.CurrentPositionWith(commandContext(cmd), opts)
			if err != nil {
				return err
			}
			res := locateResult{Coordinate: c, Geohash: geo.Geohash(c, geo.DefaultGeohashPrecision)}
			if a.json {
				return printJSON(a.out, res)
			}
			fmt.Fprintf(a.out, "%s", formatCoordinate(c))
			if c.Accuracy > 0 {
				fmt.Fprintf(a.out, " (±%.0f m)", c.Accuracy)
			}
			fmt.Fprintf(a.out, " geohash %s\n", res.Geohash)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "acquisition timeout (default from config)")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "accept a cached fix up to this age (default from config)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore cached fixes")
	return cmd
}
