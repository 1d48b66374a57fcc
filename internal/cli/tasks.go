package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/geotask/internal/tasks"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

var errNothingToUpdate = errors.New("nothing to update (use --title, --description, --status or --assign)")

// filterFlags binds the task listing filters.
type filterFlags struct {
	status   string
	mine     bool
	assigned bool
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ff.status, "status", "", "filter by status: Pending, In Progress, Done")
	cmd.Flags().BoolVar(&ff.mine, "mine", false, "only tasks created by me")
	cmd.Flags().BoolVar(&ff.assigned, "assigned", false, "only tasks assigned to me")
}

func (ff *filterFlags) filter() types.TaskFilter {
	return types.TaskFilter{Status: ff.status, CreatedByMe: ff.mine, AssignedToMe: ff.assigned}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

// withLogin opens the app, checks for a token and runs fn.
func withLogin(cmd *cobra.Command, f *rootFlags, fn func(a *app) error) error {
	a, err := openApp(cmd, f)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	return fn(a)
}

func newTasksCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List, create and manage tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(f),
		newTasksShowCmd(f),
		newTasksCreateCmd(f),
		newTasksUpdateCmd(f),
		newTasksStatusCmd(f),
		newTasksDeleteCmd(f),
		newTasksExportCmd(f),
		newTasksMapCmd(f),
		newTasksNearestCmd(f),
	)
	return cmd
}

func newTasksListCmd(f *rootFlags) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogin(cmd, f, func(a *app) error {
				list, err := a.client.ListTasks(commandContext(cmd), ff.filter())
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, map[string]any{"tasks": list})
				}
				return writeTaskTable(a.out, list)
			})
		},
	}
	ff.register(cmd)
	return cmd
}

func newTasksShowCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Display a task with full details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withLogin(cmd, f, func(a *app) error {
				t, err := a.client.GetTask(commandContext(cmd), id)
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, map[string]any{"task": t})
				}
				return writeTaskDetail(a.out, t)
			})
		},
	}
}

func newTasksCreateCmd(f *rootFlags) *cobra.Command {
	var (
		nt       types.NewTask
		lat, lon float64
		assign   int64
		here     bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Long: "Create a task. Coordinates come from --lat/--lon, or from the current\n" +
			"position with --here. An image up to 5MB can be attached with --image.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("lat") != flags.Changed("lon") {
				return errors.New("--lat and --lon must be given together")
			}
			if flags.Changed("lat") {
				nt.Latitude, nt.Longitude = &lat, &lon
			}
			if flags.Changed("assign") {
				nt.AssignedTo = &assign
			}
			if nt.ImagePath != "" {
				if _, err := os.Stat(nt.ImagePath); err != nil {
					return fmt.Errorf("image: %w", err)
				}
			}
			return withLogin(cmd, f, func(a *app) error {
				t, err := a.svc.Create(commandContext(cmd), nt, here)
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, map[string]any{"task": t})
				}
				if t.ID != 0 {
					fmt.Fprintf(a.out, "Task created successfully (#%d)\n", t.ID)
				} else {
					fmt.Fprintln(a.out, "Task created successfully")
				}
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&nt.Title, "title", "t", "", "task title (required)")
	fl.StringVarP(&nt.Description, "description", "d", "", "task description")
	fl.StringVar(&nt.Address, "address", "", "street address")
	fl.Float64Var(&lat, "lat", 0, "latitude")
	fl.Float64Var(&lon, "lon", 0, "longitude")
	fl.Int64Var(&assign, "assign", 0, "assign to user ID")
	fl.StringVar(&nt.ImagePath, "image", "", "image file to attach (max 5MB)")
	fl.BoolVar(&here, "here", false, "use the current position as the task location")
	return cmd
}

func newTasksUpdateCmd(f *rootFlags) *cobra.Command {
	var (
		title, description, status string
		assign                     int64
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Long:  "Update the given fields of a task. Reassigning with --assign is only allowed for the task creator.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			var u types.TaskUpdate
			if flags.Changed("title") {
				u.Title = &title
			}
			if flags.Changed("description") {
				u.Description = &description
			}
			if flags.Changed("status") {
				u.Status = &status
			}
			reassign := flags.Changed("assign")
			if u == (types.TaskUpdate{}) && !reassign {
				return errNothingToUpdate
			}

			return withLogin(cmd, f, func(a *app) error {
				ctx := commandContext(cmd)
				var t *types.Task
				if reassign {
					if t, err = a.svc.Reassign(ctx, id, assign); err != nil {
						return err
					}
				}
				if u != (types.TaskUpdate{}) {
					if t, err = a.client.UpdateTask(ctx, id, u); err != nil {
						return err
					}
				}
				if a.json {
					return printJSON(a.out, map[string]any{"task": t})
				}
				fmt.Fprintf(a.out, "Task #%d updated\n", id)
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&title, "title", "", "new title")
	fl.StringVar(&description, "description", "", "new description")
	fl.StringVar(&status, "status", "", "new status: Pending, In Progress, Done")
	fl.Int64Var(&assign, "assign", 0, "reassign to user ID (creator only)")
	return cmd
}

func newTasksStatusCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := types.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return withLogin(cmd, f, func(a *app) error {
				t, err := a.svc.SetStatus(commandContext(cmd), id, status)
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, map[string]any{"task": t})
				}
				fmt.Fprintf(a.out, "Task #%d is now %s\n", id, status)
				return nil
			})
		},
	}
}

func newTasksDeleteCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withLogin(cmd, f, func(a *app) error {
				if err := a.client.DeleteTask(commandContext(cmd), id); err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, map[string]any{"deleted": id})
				}
				fmt.Fprintf(a.out, "Task #%d deleted\n", id)
				return nil
			})
		},
	}
}

func newTasksExportCmd(f *rootFlags) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "export <file.jsonl>",
		Short: "Write tasks to a JSON Lines file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogin(cmd, f, func(a *app) error {
				n, err := a.svc.Export(commandContext(cmd), ff.filter(), args[0])
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, map[string]any{"path": args[0], "count": n})
				}
				fmt.Fprintf(a.out, "Exported %d tasks to %s\n", n, args[0])
				return nil
			})
		},
	}
	ff.register(cmd)
	return cmd
}

func newTasksMapCmd(f *rootFlags) *cobra.Command {
	var (
		ff     filterFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Render located tasks as GeoJSON",
		Long: "Render tasks that have a location as a GeoJSON FeatureCollection. The view\n" +
			"center is the current position, or map.center_* from config.yaml.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogin(cmd, f, func(a *app) error {
				view, err := a.svc.Map(commandContext(cmd), ff.filter())
				if err != nil {
					return err
				}
				if output != "" {
					data, err := jsonBytes(view.Features)
					if err != nil {
						return err
					}
					if err := os.WriteFile(output, data, 0o644); err != nil {
						return systemError(fmt.Errorf("write %s: %w", output, err))
					}
					fmt.Fprintf(a.out, "Wrote %d features to %s (center %s, %s)\n",
						len(view.Features.Features), output, formatCoordinate(view.Center), view.CenterSource)
					return nil
				}
				if a.json {
					return printJSON(a.out, view)
				}
				return printJSON(a.out, view.Features)
			})
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the GeoJSON to a file")
	return cmd
}

func newTasksNearestCmd(f *rootFlags) *cobra.Command {
	var (
		ff       filterFlags
		k        int
		lat, lon float64
	)
	cmd := &cobra.Command{
		Use:   "nearest",
		Short: "Show the tasks closest to you",
		Long:  "Rank tasks by distance from the current position (or --lat/--lon) and show the closest ones.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			center, explicit, err := centerFlags(cmd, lat, lon)
			if err != nil {
				return err
			}
			if k <= 0 {
				return errors.New("--count must be positive")
			}
			return withLogin(cmd, f, func(a *app) error {
				ctx := commandContext(cmd)
				var res *tasks.NearbyResult
				if explicit {
					res, err = a.svc.NearestFrom(ctx, center, k, ff.filter())
				} else {
					res, err = a.svc.Nearest(ctx, k, ff.filter())
				}
				if err != nil {
					return err
				}
				return a.printNearby(res)
			})
		},
	}
	ff.register(cmd)
	cmd.Flags().IntVarP(&k, "count", "k", 5, "number of tasks")
	cmd.Flags().Float64Var(&lat, "lat", 0, "center latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "center longitude")
	return cmd
}
