package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/applebridge/internal/apps"
	"github.com/starford/applebridge/internal/osascript"
	"github.com/starford/applebridge/internal/sse"
	"github.com/starford/applebridge/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *recordingPublisher) Publish(ev sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// testEnv builds a router over a fake executor that denies Messages.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (http.Handler, *recordingPublisher) {
	t.Helper()
	return testEnvWithSSE(t, authToken, nil)
}

func testEnvWithSSE(t *testing.T, authToken string, sseHandler http.Handler) (http.Handler, *recordingPublisher) {
	t.Helper()
	fake := testutil.NewFakeExecutor("").Deny(apps.AppMessages)
	pub := &recordingPublisher{}
	return NewRouter(fake, authToken != "", authToken, sseHandler, pub), pub
}

func TestListApps(t *testing.T) {
	router, pub := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/apps", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp AppsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Apps) != len(apps.All) {
		t.Fatalf("apps = %d, want %d", len(resp.Apps), len(apps.All))
	}
	for i, st := range resp.Apps {
		if st.Name != apps.All[i] {
			t.Errorf("apps[%d] = %q, want %q", i, st.Name, apps.All[i])
		}
		if want := st.Name != apps.AppMessages; st.Accessible != want {
			t.Errorf("%s accessible = %v, want %v", st.Name, st.Accessible, want)
		}
	}
	if resp.CheckedAt.IsZero() {
		t.Error("checked_at is zero")
	}
	if n := pub.count(); n != len(apps.All) {
		t.Errorf("published %d events, want %d", n, len(apps.All))
	}
}

// overlapExecutor records the most osascript runs seen in flight at once.
type overlapExecutor struct {
	inFlight atomic.Int32
	max      atomic.Int32
}

func (e *overlapExecutor) Run(_ context.Context, _ string, _ time.Duration) osascript.Result {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		cur := e.max.Load()
		if n <= cur || e.max.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return osascript.Result{Success: true, Output: "ok"}
}

func TestListApps_ChecksOneAtATime(t *testing.T) {
	exec := &overlapExecutor{}
	router := NewRouter(exec, false, "", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/apps", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := exec.max.Load(); got != 1 {
		t.Errorf("max concurrent osascript runs = %d, want 1", got)
	}
}

func TestGetApp(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/apps/notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st AppStatus
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.Name != apps.AppNotes || !st.Accessible {
		t.Errorf("status = %+v", st)
	}

	req = httptest.NewRequest(http.MethodGet, "/apps/Messages", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.Accessible {
		t.Error("Messages should be reported inaccessible")
	}
}

func TestGetApp_Unknown(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/apps/Safari", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown app = %d, want 404", w.Code)
	}
	var body errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error != "unknown application" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/apps", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, pub := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/apps", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
	if pub.count() != 0 {
		t.Error("rejected request must not check applications")
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/apps", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/apps", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestSSEEvents_NotMounted(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("events without handler = %d, want 404", w.Code)
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	broker := sse.NewBroker(0)
	t.Cleanup(broker.Close)
	router, _ := testEnvWithSSE(t, "secret", broker)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	broker := sse.NewBroker(0)
	t.Cleanup(broker.Close)
	router, _ := testEnvWithSSE(t, "tok", broker)

	// The broker streams until the request context ends.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
}
