package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// jsonBytes returns v as indented JSON with a trailing newline.
func jsonBytes(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// writeTaskTable prints one task per row.
func writeTaskTable(w io.Writer, list []types.Task) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No tasks found")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tASSIGNEE\tLOCATION")
	for i := range list {
		t := &list[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Title, orDash(t.Status), userLabel(t.Assignee, t.AssignedTo), locationLabel(t))
	}
	return tw.Flush()
}

// writeTaskDetail prints every field of t.
func writeTaskDetail(w io.Writer, t *types.Task) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%d\n", t.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	fmt.Fprintf(tw, "Status:\t%s\n", orDash(t.Status))
	fmt.Fprintf(tw, "Description:\t%s\n", orDash(t.Description))
	fmt.Fprintf(tw, "Address:\t%s\n", orDash(t.Address))
	fmt.Fprintf(tw, "Location:\t%s\n", locationLabel(t))
	fmt.Fprintf(tw, "Created by:\t%s\n", userLabel(t.Creator, &t.CreatedBy))
	fmt.Fprintf(tw, "Assigned to:\t%s\n", userLabel(t.Assignee, t.AssignedTo))
	if t.ImagePath != "" {
		fmt.Fprintf(tw, "Image:\t%s\n", t.ImagePath)
	}
	fmt.Fprintf(tw, "Created at:\t%s\n", orDash(t.CreatedAt))
	if t.Distance != nil {
		fmt.Fprintf(tw, "Distance:\t%.2f km\n", *t.Distance)
	}
	return tw.Flush()
}

func writeUserTable(w io.Writer, users []types.User) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Username, orDash(u.Email))
	}
	return tw.Flush()
}

func locationLabel(t *types.Task) string {
	c, ok := t.Coordinate()
	if !ok {
		return "-"
	}
	return formatCoordinate(c)
}

func formatCoordinate(c types.Coordinate) string {
	return fmt.Sprintf("%.5f, %.5f", c.Latitude, c.Longitude)
}

func userLabel(u *types.User, id *int64) string {
	switch {
	case u != nil && u.Username != "":
		return u.Username
	case id != nil && *id != 0:
		return "#" + strconv.FormatInt(*id, 10)
	default:
		return "-"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
