package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/geotask/pkg/geo"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

func newDistanceCmd(f *rootFlags) *cobra.Command {
	var radius float64
	cmd := &cobra.Command{
		Use:   "distance <lat1> <lon1> <lat2> <lon2>",
		Short: "Great-circle distance between two points in kilometers",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]float64
			for i, s := range args {
				x, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return fmt.Errorf("invalid number %q", s)
				}
				v[i] = x
			}
			a := types.Coordinate{Latitude: v[0], Longitude: v[1]}
			b := types.Coordinate{Latitude: v[2], Longitude: v[3]}
			km, err := geo.Distance(a, b)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			label := ""
			if radius > 0 {
				label = geo.Label(km, radius)
			}
			if f.jsonMode {
				return printJSON(out, map[string]any{
					"from":        a,
					"to":          b,
					"distance_km": km,
					"label":       label,
				})
			}
			fmt.Fprintf(out, "%.3f km", km)
			if label != "" {
				fmt.Fprintf(out, " (%s)", label)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	// Stop flag parsing at the first coordinate so negative values after it
	// are read as arguments. A negative first value needs "--".
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().Float64VarP(&radius, "radius", "r", 0, "also print the proximity label within this radius (km)")
	return cmd
}
