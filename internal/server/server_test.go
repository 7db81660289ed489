package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quire/internal/build"
	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/logging"
)

func newSiteRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":             "<html><body><h1>Home</h1></body></html>",
		"page2.html":             "<html><body><p>Page 2</p></body></html>",
		"posts/hello.html":       "<html><BODY><p>Hello</p></BODY></html>",
		"category/go/page1.html": "<html><body>Go</body></html>",
		"assets/style.css":       "body{color:red}",
		"feed.xml":               "<rss></rss>",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestServer(t *testing.T, root string, liveReload bool) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Options{
		Host:       "localhost",
		Port:       8080,
		Root:       root,
		LiveReload: liveReload,
	}, logging.NewNopLogger())
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		ts.Close()
		_ = s.Shutdown(context.Background())
	})
	return s, ts
}

func get(t *testing.T, url string) (int, http.Header, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header, string(body)
}

func TestStaticRouting(t *testing.T) {
	_, ts := newTestServer(t, newSiteRoot(t), false)

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{"root serves index", "/", http.StatusOK, "<h1>Home</h1>"},
		{"explicit html", "/page2.html", http.StatusOK, "Page 2"},
		{"extension-less pagination url", "/page2", http.StatusOK, "Page 2"},
		{"nested post", "/posts/hello.html", http.StatusOK, "Hello"},
		{"category page", "/category/go/page1", http.StatusOK, "Go"},
		{"asset", "/assets/style.css", http.StatusOK, "color:red"},
		{"feed", "/feed.xml", http.StatusOK, "<rss>"},
		{"missing", "/nope", http.StatusNotFound, ""},
		{"traversal is cleaned", "/../../etc/passwd", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, body := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestReloadScriptInjection(t *testing.T) {
	_, ts := newTestServer(t, newSiteRoot(t), true)

	status, header, body := get(t, ts.URL+"/posts/hello.html")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "text/html; charset=utf-8", header.Get("Content-Type"))
	assert.Contains(t, body, ReloadPath)
	assert.Less(t, strings.Index(body, "<script>"), strings.Index(body, "</BODY>"))

	_, _, css := get(t, ts.URL+"/assets/style.css")
	assert.NotContains(t, css, "<script>")
}

func TestNoInjectionWithoutLiveReload(t *testing.T) {
	_, ts := newTestServer(t, newSiteRoot(t), false)

	_, _, body := get(t, ts.URL+"/")
	assert.Equal(t, "<html><body><h1>Home</h1></body></html>", body)

	status, _, _ := get(t, ts.URL+ReloadPath)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestErrorOverlay(t *testing.T) {
	s, ts := newTestServer(t, newSiteRoot(t), false)

	s.BuildFinished(&build.Report{
		BuildID: "01HFAIL",
		Failures: []errors.PageFailure{
			{Page: "posts/broken.md", Err: errors.NewTemplateSyntaxError(errors.ErrCodeUnterminatedBlock, "unterminated block: if")},
		},
	}, nil)

	_, _, body := get(t, ts.URL+"/")
	assert.Contains(t, body, "quire-error-overlay")
	assert.Contains(t, body, "posts/broken.md")

	status, _, missing := get(t, ts.URL+"/posts/broken.html")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, missing, "unterminated block")

	s.BuildFinished(&build.Report{BuildID: "01HOK"}, nil)
	_, _, body = get(t, ts.URL+"/")
	assert.NotContains(t, body, "quire-error-overlay")
}

func TestSiteErrorShownInOverlay(t *testing.T) {
	s, ts := newTestServer(t, newSiteRoot(t), false)

	s.BuildFinished(nil, stderrors.New("include key collision: nav"))
	_, _, body := get(t, ts.URL+"/")
	assert.Contains(t, body, "include key collision")
}

func TestHealth(t *testing.T) {
	s, ts := newTestServer(t, newSiteRoot(t), true)
	s.BuildFinished(&build.Report{BuildID: "01HBUILD"}, nil)

	status, header, body := get(t, ts.URL+HealthPath)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", header.Get("Content-Type"))

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "01HBUILD", resp.BuildID)
	assert.Equal(t, 0, resp.Failures)
}

func TestLiveReloadBroadcast(t *testing.T) {
	s, ts := newTestServer(t, newSiteRoot(t), true)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+ReloadPath, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.BuildFinished(&build.Report{BuildID: "01HRELOAD"}, nil)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "reload", msg["type"])
	assert.Equal(t, "01HRELOAD", msg["build_id"])
}

func TestInjectBeforeBodyEnd(t *testing.T) {
	tests := []struct {
		name, page, want string
	}{
		{"lowercase", "<body>x</body>", "<body>x<!--s--></body>"},
		{"uppercase", "<BODY>x</BODY>", "<BODY>x<!--s--></BODY>"},
		{"last body wins", "<body></body><body></body>", "<body></body><body><!--s--></body>"},
		{"no body", "<p>x</p>", "<p>x</p><!--s-->"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(InjectBeforeBodyEnd([]byte(tt.page), "<!--s-->")))
		})
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	s := New(Options{Host: "127.0.0.1", Port: 0, Root: t.TempDir()}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
