package asana_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MagicTurtle-s/asana-mcp-railway/asana"
)

func testClient(t *testing.T, handler http.HandlerFunc) *asana.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return asana.NewClient("test-token", asana.WithBaseURL(srv.URL))
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data": {"gid": "1", "name": "Eng"}}`)
	})

	ws, err := client.GetWorkspace(context.Background(), "1", "")
	require.NoError(t, err)
	require.Equal(t, "Bearer test-token", gotAuth)
	require.Equal(t, "Eng", ws.Name)
}

func TestClient_WrapsRequestBodyInData(t *testing.T) {
	var gotBody map[string]json.RawMessage
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"data": {"gid": "42", "name": "new task"}}`)
	})

	name := "new task"
	task, err := client.CreateTask(context.Background(), &asana.TaskRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "42", task.GID)
	require.Contains(t, gotBody, "data")
	require.Contains(t, string(gotBody["data"]), `"name":"new task"`)
}

func TestClient_APIErrorUsesProviderMessage(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errors": [{"message": "task: Not a recognized ID: nope"}]}`)
	})

	_, err := client.GetTask(context.Background(), "nope", "")
	var apiErr *asana.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Contains(t, apiErr.Message, "Not a recognized ID")
}

func TestClient_RetriesOnceOnRateLimit(t *testing.T) {
	var calls int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data": {"gid": "1"}}`)
	})

	task, err := client.GetTask(context.Background(), "1", "")
	require.NoError(t, err)
	require.Equal(t, "1", task.GID)
	require.Equal(t, 2, calls)
}

func TestClient_SecondRateLimitIsAnError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetTask(context.Background(), "1", "")
	var rlErr *asana.RateLimitError
	require.ErrorAs(t, err, &rlErr)
}

func TestClient_PaginationFollowsOffsets(t *testing.T) {
	var offsets []string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		require.Equal(t, "100", r.URL.Query().Get("limit"))

		switch offset {
		case "":
			fmt.Fprint(w, `{"data": [{"gid": "1"}, {"gid": "2"}], "next_page": {"offset": "page2"}}`)
		case "page2":
			fmt.Fprint(w, `{"data": [{"gid": "3"}]}`)
		default:
			t.Fatalf("unexpected offset %q", offset)
		}
	})

	tasks, err := client.GetTasksFromProject(context.Background(), "p1", "", 0)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	require.Equal(t, []string{"", "page2"}, offsets)
	require.Equal(t, "3", tasks[2].GID)
}

func TestClient_PaginationStopsAtMaxResults(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [{"gid": "1"}, {"gid": "2"}, {"gid": "3"}], "next_page": {"offset": "more"}}`)
	})

	tasks, err := client.GetTasksFromProject(context.Background(), "p1", "", 2)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
}

func TestClient_SearchTasksBuildsQuery(t *testing.T) {
	var gotQuery string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"data": [{"gid": "1", "name": "fix login"}]}`)
	})

	params := url.Values{}
	params.Set("text", "login")
	params.Set("completed", "false")
	tasks, err := client.SearchTasks(context.Background(), "ws1", params, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Contains(t, gotQuery, "text=login")
	require.Contains(t, gotQuery, "completed=false")
}

func TestClient_GetMultipleTasksCapsBatch(t *testing.T) {
	var gotTaskParam string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotTaskParam = r.URL.Query().Get("task")
		fmt.Fprint(w, `{"data": [{"gid": "0"}]}`)
	})

	ids := make([]string, 30)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}
	tasks, err := client.GetMultipleTasks(context.Background(), ids, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Len(t, strings.Split(gotTaskParam, ","), 25)
}

func TestClient_DeleteTask(t *testing.T) {
	var gotMethod, gotPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		fmt.Fprint(w, `{"data": {}}`)
	})

	require.NoError(t, client.DeleteTask(context.Background(), "77"))
	require.Equal(t, http.MethodDelete, gotMethod)
	require.Equal(t, "/tasks/77", gotPath)
}
