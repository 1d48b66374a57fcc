package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/geotask/internal/tasks"
	"github.com/mesh-intelligence/geotask/pkg/geo"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// centerFlags returns the --lat/--lon center when both are given. The second
// value is false when neither is set.
func centerFlags(cmd *cobra.Command, lat, lon float64) (types.Coordinate, bool, error) {
	flags := cmd.Flags()
	latSet, lonSet := flags.Changed("lat"), flags.Changed("lon")
	if latSet != lonSet {
		return types.Coordinate{}, false, errors.New("--lat and --lon must be given together")
	}
	if !latSet {
		return types.Coordinate{}, false, nil
	}
	if err := geo.Validate(lat, lon); err != nil {
		return types.Coordinate{}, false, err
	}
	return types.Coordinate{Latitude: lat, Longitude: lon}, true, nil
}

func newNearbyCmd(f *rootFlags) *cobra.Command {
	var (
		radius   float64
		status   string
		lat, lon float64
	)
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List tasks near your current position",
		Long: "Locate the current position and list tasks within --radius kilometers.\n" +
			"Use --lat/--lon to search around another point instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			center, explicit, err := centerFlags(cmd, lat, lon)
			if err != nil {
				return err
			}
			return withLogin(cmd, f, func(a *app) error {
				ctx := commandContext(cmd)
				var res *tasks.NearbyResult
				if explicit {
					res, err = a.svc.NearbyFrom(ctx, center, radius, status)
				} else {
					res, err = a.svc.Nearby(ctx, radius, status)
				}
				if err != nil {
					return err
				}
				return a.printNearby(res)
			})
		},
	}
	cmd.Flags().Float64VarP(&radius, "radius", "r", types.DefaultRadiusKm, "search radius in kilometers")
	cmd.Flags().StringVar(&status, "status", "", "filter by status: Pending, In Progress, Done")
	cmd.Flags().Float64Var(&lat, "lat", 0, "center latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "center longitude")
	return cmd
}

// printNearby prints a nearby or nearest result.
func (a *app) printNearby(res *tasks.NearbyResult) error {
	if a.json {
		return printJSON(a.out, res)
	}
	if res.RadiusKm > 0 {
		fmt.Fprintf(a.out, "Tasks within %.1f km of %s\n", res.RadiusKm, formatCoordinate(res.Center))
	} else {
		fmt.Fprintf(a.out, "Tasks closest to %s\n", formatCoordinate(res.Center))
	}
	if len(res.Items) == 0 {
		fmt.Fprintln(a.out, "No tasks found")
		return nil
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tDISTANCE\tPROXIMITY\tGEOHASH")
	for _, it := range res.Items {
		dist := "-"
		if it.DistanceKm != nil {
			dist = fmt.Sprintf("%.2f km", *it.DistanceKm)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			it.Task.ID, it.Task.Title, orDash(it.Task.Status), dist, orDash(it.Label), orDash(it.Geohash))
	}
	return tw.Flush()
}
