package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/geotask/internal/session"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

func ptr[T any](v T) *T { return &v }

// newTestClient starts a server running h and returns a client bound to it.
func newTestClient(t *testing.T, token string, h http.HandlerFunc) (*Client, *session.Memory) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	sess := session.NewMemory(token)
	c, err := New(Config{BaseURL: srv.URL + "/api/"}, sess, nil)
	require.NoError(t, err)
	return c, sess
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, session.NewMemory(""), nil)
	assert.ErrorIs(t, err, ErrNoBaseURL)
	_, err = New(Config{BaseURL: "http://x"}, nil, nil)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClient_BearerHeader(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"with token", "abc.def.ghi", "Bearer abc.def.ghi"},
		{"without token", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.token, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.want, r.Header.Get("Authorization"))
				assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
				writeJSON(t, w, http.StatusOK, map[string]any{"users": []types.User{}})
			})
			_, err := c.ListUsers(context.Background())
			require.NoError(t, err)
		})
	}
}

func TestClient_TokenChangeAppliesToNextRequest(t *testing.T) {
	var seen []string
	c, sess := newTestClient(t, "first", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{"users": []types.User{}})
	})
	_, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.SetToken("second"))
	_, err = c.ListUsers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer first", "Bearer second"}, seen)
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	c, sess := newTestClient(t, "expired", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"msg": "Token has expired"})
	})
	require.NoError(t, sess.SetUser(types.User{ID: 1}))

	_, err := c.ListTasks(context.Background(), types.TaskFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.AuthError)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Token has expired", apiErr.Message)

	tok, _ := sess.Token()
	assert.Empty(t, tok, "session cleared on 401")
	u, _ := sess.User()
	assert.Nil(t, u)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
		is     error
	}{
		{"error field", http.StatusBadRequest, `{"error":"Title is required"}`, "Title is required", nil},
		{"message field", http.StatusForbidden, `{"message":"Not allowed"}`, "Not allowed", nil},
		{"plain text", http.StatusInternalServerError, `boom`, "boom", nil},
		{"html", http.StatusBadGateway, `<html>bad</html>`, "Bad Gateway", nil},
		{"not found", http.StatusNotFound, `{"error":"Task not found"}`, "Task not found", types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sess := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.GetTask(context.Background(), 9)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.False(t, apiErr.AuthError)
			assert.False(t, errors.Is(err, ErrUnauthorized))
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			tok, _ := sess.Token()
			assert.Equal(t, "tok", tok, "non-401 keeps the session")
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base}, session.NewMemory(""), nil)
	require.NoError(t, err)
	_, err = c.ListUsers(context.Background())
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_LoginStoresToken(t *testing.T) {
	c, sess := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, Credentials{Username: "alice", Password: "pw"}, creds)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"access_token": "new-token",
			"user":         types.User{ID: 5, Username: "alice"},
		})
	})

	u, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)

	tok, _ := sess.Token()
	assert.Equal(t, "new-token", tok)
	cached, _ := sess.User()
	require.NotNil(t, cached)
	assert.Equal(t, "alice", cached.Username)
}

func TestClient_LoginBadCredentials(t *testing.T) {
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	})
	_, err := c.Login(context.Background(), "alice", "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestClient_RegisterMissingToken(t *testing.T) {
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "a@example.com", creds.Email)
		writeJSON(t, w, http.StatusCreated, map[string]any{"user": types.User{ID: 1}})
	})
	_, err := c.Register(context.Background(), "a", "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestClient_Profile(t *testing.T) {
	c, sess := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/profile", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"user": types.User{ID: 3, Username: "carol"}})
	})
	u, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "carol", u.Username)
	cached, _ := sess.User()
	require.NotNil(t, cached)
	assert.Equal(t, int64(3), cached.ID)

	require.NoError(t, c.Logout())
	tok, _ := sess.Token()
	assert.Empty(t, tok)
}

func TestClient_ListTasksQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter types.TaskFilter
		query  string
	}{
		{"no filters", types.TaskFilter{}, ""},
		{"status alias", types.TaskFilter{Status: "in_progress"}, "status=In+Progress"},
		{"mine", types.TaskFilter{CreatedByMe: true, AssignedToMe: true}, "assigned_to_me=true&created_by_me=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/tasks/", r.URL.Path)
				assert.Equal(t, tt.query, r.URL.RawQuery)
				writeJSON(t, w, http.StatusOK, map[string]any{"tasks": []types.Task{{ID: 1, Title: "a"}}})
			})
			tasks, err := c.ListTasks(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Len(t, tasks, 1)
		})
	}
}

func TestClient_ListTasksInvalidStatus(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.ListTasks(context.Background(), types.TaskFilter{Status: "archived"})
	assert.ErrorIs(t, err, types.ErrInvalidStatus)
}

func TestClient_GetUpdateDelete(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks/42", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, map[string]any{"task": types.Task{ID: 42, Title: "Fix sign"}})
		case http.MethodPut:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"status": "Done"}, body, "only set fields are sent")
			writeJSON(t, w, http.StatusOK, map[string]any{"task": types.Task{ID: 42, Status: "Done"}})
		case http.MethodDelete:
			writeJSON(t, w, http.StatusOK, map[string]string{"message": "Task deleted"})
		}
	})
	ctx := context.Background()

	task, err := c.GetTask(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Fix sign", task.Title)

	task, err = c.UpdateTask(ctx, 42, types.TaskUpdate{Status: ptr("completed")})
	require.NoError(t, err)
	assert.Equal(t, types.StatusDone, task.Status)

	require.NoError(t, c.DeleteTask(ctx, 42))
}

func TestClient_UpdateTaskValidation(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.UpdateTask(context.Background(), 1, types.TaskUpdate{Status: ptr("nope")})
	assert.ErrorIs(t, err, types.ErrInvalidStatus)
	_, err = c.UpdateTask(context.Background(), 1, types.TaskUpdate{Title: ptr("  ")})
	assert.ErrorIs(t, err, types.ErrInvalidTitle)
}

func TestClient_CreateTaskMultipart(t *testing.T) {
	img := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpegdata"), 0o644))

	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tasks/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(MaxImageBytes))

		assert.Equal(t, "Water plants", r.FormValue("title"))
		assert.Equal(t, "19.076", r.FormValue("latitude"))
		assert.Equal(t, "72.8777", r.FormValue("longitude"))
		assert.Equal(t, "7", r.FormValue("assigned_to"))
		_, hasDesc := r.MultipartForm.Value["description"]
		assert.False(t, hasDesc, "empty fields are omitted")
		_, hasAddr := r.MultipartForm.Value["address"]
		assert.False(t, hasAddr)

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "photo.jpg", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "jpegdata", string(data))

		writeJSON(t, w, http.StatusCreated, map[string]any{"task": types.Task{ID: 10, Title: "Water plants"}})
	})

	task, err := c.CreateTask(context.Background(), types.NewTask{
		Title:      "Water plants",
		Latitude:   ptr(19.076),
		Longitude:  ptr(72.8777),
		AssignedTo: ptr(int64(7)),
		ImagePath:  img,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), task.ID)
}

func TestClient_CreateTaskRejectsLocally(t *testing.T) {
	big := filepath.Join(t.TempDir(), "big.png")
	f, err := os.Create(big)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxImageBytes+1))
	require.NoError(t, f.Close())

	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err = c.CreateTask(context.Background(), types.NewTask{Title: "x", ImagePath: big})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = c.CreateTask(context.Background(), types.NewTask{Title: "   "})
	assert.ErrorIs(t, err, types.ErrInvalidTitle)
}

func TestClient_NearbyTasks(t *testing.T) {
	tests := []struct {
		name  string
		query types.NearbyQuery
		want  map[string]any
	}{
		{
			name:  "default radius and no status",
			query: types.NearbyQuery{Latitude: 19.076, Longitude: 72.8777},
			want:  map[string]any{"latitude": 19.076, "longitude": 72.8777, "radius": 10.0},
		},
		{
			name:  "status included",
			query: types.NearbyQuery{Latitude: 1, Longitude: 2, Radius: 5, Status: "pending"},
			want:  map[string]any{"latitude": 1.0, "longitude": 2.0, "radius": 5.0, "status": "Pending"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/tasks/nearby", r.URL.Path)
				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, tt.want, body)
				writeJSON(t, w, http.StatusOK, map[string]any{
					"tasks": []types.Task{{ID: 1, Distance: ptr(1.5)}},
				})
			})
			tasks, err := c.NearbyTasks(context.Background(), tt.query)
			require.NoError(t, err)
			require.Len(t, tasks, 1)
			assert.Equal(t, 1.5, *tasks[0].Distance)
		})
	}
}

func TestClient_NearbyNegativeRadius(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.NearbyTasks(context.Background(), types.NearbyQuery{Radius: -1})
	assert.ErrorIs(t, err, types.ErrInvalidRadius)
}

func TestClient_Users(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/":
			writeJSON(t, w, http.StatusOK, map[string]any{"users": []types.User{{ID: 1}, {ID: 2}}})
		case "/api/users/2":
			writeJSON(t, w, http.StatusOK, map[string]any{"user": types.User{ID: 2, Username: "bob"}})
		default:
			writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "User not found"})
		}
	})
	ctx := context.Background()

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	u, err := c.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	_, err = c.GetUser(ctx, 99)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
