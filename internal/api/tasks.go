package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// MaxImageBytes is the largest image accepted for upload.
const MaxImageBytes = 5 * 1024 * 1024

// ErrImageTooLarge is returned before upload when the image exceeds MaxImageBytes.
var ErrImageTooLarge = errors.New("image size should be less than 5MB")

type taskResponse struct {
	Task    *types.Task `json:"task"`
	Message string      `json:"message"`
}

type tasksResponse struct {
	Tasks []types.Task `json:"tasks"`
}

// ListTasks returns tasks matching filter. Zero-valued filter fields are not
// sent.
func (c *Client) ListTasks(ctx context.Context, filter types.TaskFilter) ([]types.Task, error) {
	q := url.Values{}
	if filter.Status != "" {
		status, err := types.ParseStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		q.Set("status", status)
	}
	if filter.CreatedByMe {
		q.Set("created_by_me", "true")
	}
	if filter.AssignedToMe {
		q.Set("assigned_to_me", "true")
	}

	var resp tasksResponse
	if err := c.getJSON(ctx, "/tasks/", q, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// GetTask returns one task.
func (c *Client) GetTask(ctx context.Context, id int64) (*types.Task, error) {
	var resp taskResponse
	if err := c.getJSON(ctx, taskPath(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, fmt.Errorf("task %d: %w", id, types.ErrNotFound)
	}
	return resp.Task, nil
}

// CreateTask uploads a new task as a multipart form. Empty fields are left
// out of the form. When ImagePath is set the file is attached as "image".
func (c *Client) CreateTask(ctx context.Context, nt types.NewTask) (*types.Task, error) {
	if strings.TrimSpace(nt.Title) == "" {
		return nil, types.ErrInvalidTitle
	}

	body, contentType, err := encodeNewTask(nt)
	if err != nil {
		return nil, err
	}

	var resp taskResponse
	if err := c.do(ctx, http.MethodPost, "/tasks/", nil, body, contentType, &resp); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		// Some deployments only acknowledge creation.
		return &types.Task{Title: nt.Title}, nil
	}
	return resp.Task, nil
}

// UpdateTask sends the non-nil fields of u. The status, when set, is
// normalized to its canonical spelling.
func (c *Client) UpdateTask(ctx context.Context, id int64, u types.TaskUpdate) (*types.Task, error) {
	if u.Status != nil {
		status, err := types.ParseStatus(*u.Status)
		if err != nil {
			return nil, err
		}
		u.Status = &status
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return nil, types.ErrInvalidTitle
	}

	var resp taskResponse
	if err := c.sendJSON(ctx, http.MethodPut, taskPath(id), u, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, "", nil)
}

// NearbyTasks queries tasks within q.Radius kilometers of q's position.
// The radius defaults to 10 km and an empty status is not sent.
func (c *Client) NearbyTasks(ctx context.Context, q types.NearbyQuery) ([]types.Task, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	var resp tasksResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/tasks/nearby", q, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

type formField struct{ key, value string }

// encodeNewTask builds the multipart body for CreateTask.
func encodeNewTask(nt types.NewTask) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []formField{
		{"title", nt.Title},
		{"description", nt.Description},
		{"address", nt.Address},
	}
	if nt.Latitude != nil {
		fields = append(fields, formField{"latitude", formatFloat(*nt.Latitude)})
	}
	if nt.Longitude != nil {
		fields = append(fields, formField{"longitude", formatFloat(*nt.Longitude)})
	}
	if nt.AssignedTo != nil {
		fields = append(fields, formField{"assigned_to", strconv.FormatInt(*nt.AssignedTo, 10)})
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.WriteField(f.key, f.value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f.key, err)
		}
	}

	if nt.ImagePath != "" {
		if err := attachImage(w, nt.ImagePath); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func attachImage(w *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat image: %w", err)
	}
	if info.Size() > MaxImageBytes {
		return fmt.Errorf("%w: %s is %d bytes", ErrImageTooLarge, filepath.Base(path), info.Size())
	}

	part, err := w.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("creating image part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copying image: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
