package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atwboard/backend/internal/domain"
)

// gatewayStub records requests and serves canned JSON per path.
type gatewayStub struct {
	mu        sync.Mutex
	requests  []*http.Request
	bodies    [][]byte
	responses map[string]func(w http.ResponseWriter, r *http.Request)
}

func newGatewayStub(t *testing.T) (*gatewayStub, *Client) {
	t.Helper()
	stub := &gatewayStub{responses: map[string]func(http.ResponseWriter, *http.Request){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		stub.mu.Lock()
		stub.requests = append(stub.requests, r.Clone(r.Context()))
		stub.bodies = append(stub.bodies, body)
		handler := stub.responses[r.URL.Path]
		stub.mu.Unlock()

		if handler == nil {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "not stubbed"})
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.AdminToken = "secret"
	return stub, New(cfg)
}

func (s *gatewayStub) respondJSON(path string, status int, body interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (s *gatewayStub) lastRequest(t *testing.T) *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

// priorityWrites returns (path, priority) for every priority update seen, in
// request order.
func (s *gatewayStub) priorityWrites(t *testing.T) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int)
	for i, req := range s.requests {
		if !strings.HasSuffix(req.URL.Path, "/priority") {
			continue
		}
		var payload struct {
			Priority int `json:"priority"`
		}
		require.NoError(t, json.Unmarshal(s.bodies[i], &payload))
		out[req.URL.Path] = payload.Priority
	}
	return out
}

func TestListTasksRoundTrip(t *testing.T) {
	stub, c := newGatewayStub(t)
	stub.respondJSON("/api/tasks", http.StatusOK, map[string]interface{}{
		"tasks": []domain.Task{
			{ID: 1, Name: "Fix login", Status: domain.StatusReady, Priority: 100},
			{ID: 2, Name: "Slow queries", Status: domain.StatusBlocked, Priority: 50},
		},
		"total": 2,
	})

	tasks, err := c.ListTasks(TaskFilter{Status: "ready", Limit: 10})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Fix login", tasks[0].Name)
	assert.Equal(t, domain.StatusBlocked, tasks[1].Status)

	req := stub.lastRequest(t)
	assert.Equal(t, "ready", req.URL.Query().Get("status"))
	assert.Equal(t, "10", req.URL.Query().Get("limit"))
}

func TestAdminTokenHeaderSent(t *testing.T) {
	stub, c := newGatewayStub(t)
	stub.respondJSON("/health", http.StatusOK, map[string]string{"status": "ok"})

	require.NoError(t, c.Health())
	assert.Equal(t, "secret", stub.lastRequest(t).Header.Get("X-Admin-Token"))
}

func TestAPIErrorFromGatewayBody(t *testing.T) {
	stub, c := newGatewayStub(t)
	stub.respondJSON("/api/tasks/T-404", http.StatusNotFound, map[string]string{"error": "task not found"})

	_, err := c.GetTask("T-404")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "task not found", apiErr.Message)
	assert.False(t, apiErr.IsTimeout())
}

func TestLocalTimeoutSynthesizes408(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.RequestTimeout = 50 * time.Millisecond
	c := New(cfg)

	err := c.Health()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsTimeout())
	assert.Equal(t, "request timed out", apiErr.Message)
}

func TestExecutorStatusNormalizesLegacyRunningKey(t *testing.T) {
	stub, c := newGatewayStub(t)
	stub.respondJSON("/api/executor/status", http.StatusOK, map[string]interface{}{
		"running":       true,
		"max_parallel":  2,
		"poll_interval": "2s",
	})

	status, err := c.ExecutorStatus()
	require.NoError(t, err)
	assert.True(t, status.IsRunning, "legacy running key maps onto is_running")
	assert.Equal(t, 2, status.MaxParallel)
}

func TestExecutorStatusCurrentKey(t *testing.T) {
	stub, c := newGatewayStub(t)
	stub.respondJSON("/api/executor/status", http.StatusOK, map[string]interface{}{
		"is_running": true,
	})

	status, err := c.ExecutorStatus()
	require.NoError(t, err)
	assert.True(t, status.IsRunning)
}

func TestRunWorkflowPostsFlags(t *testing.T) {
	stub, c := newGatewayStub(t)
	stub.respondJSON("/api/workflow/run/T-1", http.StatusAccepted, map[string]string{"message": "queued"})

	require.NoError(t, c.RunWorkflow("T-1", true, false))

	req := stub.lastRequest(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestSetPriorityPostsValue(t *testing.T) {
	stub, c := newGatewayStub(t)
	stub.respondJSON("/api/tasks/T-1/priority", http.StatusOK, domain.Task{ID: 1, Priority: 55})

	task, err := c.SetPriority("T-1", 55)
	require.NoError(t, err)
	assert.Equal(t, 55, task.Priority)
	assert.Equal(t, http.MethodPost, stub.lastRequest(t).Method)
}

func TestBaseURLTrailingSlashTrimmed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://localhost:8001/"
	c := New(cfg)
	assert.Equal(t, "http://localhost:8001", c.Config().BaseURL)
}

func TestDashboardSendsProgressFlag(t *testing.T) {
	stub, c := newGatewayStub(t)
	stub.respondJSON("/api/tasks/dashboard", http.StatusOK, domain.DashboardData{})

	_, err := c.Dashboard(true)
	require.NoError(t, err)
	assert.Equal(t, "true", stub.lastRequest(t).URL.Query().Get("progress"))

	_, err = c.Dashboard(false)
	require.NoError(t, err)
	assert.Empty(t, stub.lastRequest(t).URL.Query().Get("progress"))
}

func reorderQueue(priorities ...int) []domain.QueueItem {
	queue := make([]domain.QueueItem, len(priorities))
	for i, p := range priorities {
		queue[i] = domain.QueueItem{
			ID:       uint(i + 1),
			SourceID: fmt.Sprintf("T-%d", i+1),
			Priority: p,
		}
	}
	return queue
}

func TestReorderTaskWritesOnlyMovedItem(t *testing.T) {
	stub, c := newGatewayStub(t)
	stub.respondJSON("/api/tasks/T-3/priority", http.StatusOK, domain.Task{ID: 3, Priority: 80})

	require.NoError(t, c.ReorderTask(reorderQueue(90, 100, 110), 2, 0))

	writes := stub.priorityWrites(t)
	require.Len(t, writes, 1, "an ordinary move touches only the moved item")
	assert.Equal(t, 80, writes["/api/tasks/T-3/priority"])
}

func TestReorderTaskRenormalizesOnCollision(t *testing.T) {
	stub, c := newGatewayStub(t)
	for i := 1; i <= 3; i++ {
		stub.respondJSON(fmt.Sprintf("/api/tasks/T-%d/priority", i), http.StatusOK, domain.Task{ID: uint(i)})
	}

	// Dropping between 20 and 21 leaves no integer midpoint; the whole queue
	// is rewritten in its post-move order with fresh spacing.
	require.NoError(t, c.ReorderTask(reorderQueue(10, 20, 21), 0, 1))

	writes := stub.priorityWrites(t)
	require.Len(t, writes, 3)
	assert.Equal(t, 10, writes["/api/tasks/T-2/priority"])
	assert.Equal(t, 20, writes["/api/tasks/T-1/priority"])
	assert.Equal(t, 30, writes["/api/tasks/T-3/priority"])
}

func TestReorderTaskRejectsBadIndexes(t *testing.T) {
	_, c := newGatewayStub(t)
	queue := reorderQueue(10, 20)

	assert.Error(t, c.ReorderTask(queue, -1, 0))
	assert.Error(t, c.ReorderTask(queue, 0, 2))
	assert.NoError(t, c.ReorderTask(queue, 1, 1), "no-op move sends nothing")
}

func TestTaskFilterQuery(t *testing.T) {
	assert.Empty(t, TaskFilter{}.query())

	q := TaskFilter{Project: "billing", IncludeDone: true}.query()
	assert.Contains(t, q, "project=billing")
	assert.Contains(t, q, "include_done=true")
}
