package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/applebridge/internal/apperr"
)

const resultsTemplate = `<html><body>
<div class="result results_links web-result">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=%[1]s&rut=abc">Rust <b>Programming</b> Language</a></h2>
  <a class="result__snippet" href="#">A language empowering   everyone.</a>
</div>
<div class="result results_links web-result">
  <h2><a class="result__a" href="%[2]s">The Rust Book</a></h2>
  <div class="result__snippet">Learn Rust.</div>
</div>
<div class="result result--ad">
  <h2><a class="result__a" href="javascript:void(0)">Sponsored</a></h2>
</div>
</body></html>`

type stubSearch struct {
	srv      *httptest.Server
	query    atomic.Value
	locale   atomic.Value
	ua       atomic.Value
	requests atomic.Int32
}

func newStub(t *testing.T, longPage string) *stubSearch {
	t.Helper()
	s := &stubSearch{}
	mux := http.NewServeMux()
	mux.HandleFunc("/html/", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.query.Store(r.URL.Query().Get("q"))
		s.locale.Store(r.URL.Query().Get("kl"))
		s.ua.Store(r.Header.Get("User-Agent"))
		if r.URL.Query().Get("q") == "nothing" {
			fmt.Fprint(w, `<html><body><div class="no-results">No results.</div></body></html>`)
			return
		}
		fmt.Fprintf(w, resultsTemplate,
			url.QueryEscape(s.srv.URL+"/page1"),
			s.srv.URL+"/page2")
	})
	mux.HandleFunc("/page1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head><title>T</title><style>body{}</style><script>var x=1;</script></head><body><p>%s</p></body></html>`, longPage)
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *stubSearch) client(opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(s.srv.Client()),
		WithEndpoint(s.srv.URL + "/html/"),
	}
	return New(append(base, opts...)...)
}

func TestSearch_FetchesAndTruncates(t *testing.T) {
	stub := newStub(t, strings.Repeat("word ", 200))
	results, err := stub.client().Search(context.Background(), "duckduckgo rust")
	require.NoError(t, err)

	assert.Equal(t, "duckduckgo rust", stub.query.Load())
	assert.Equal(t, DefaultLocale, stub.locale.Load())
	assert.Equal(t, DefaultUserAgent, stub.ua.Load())

	// page2 returns 404 and is dropped.
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Rust Programming Language", r.Title)
	assert.Equal(t, stub.srv.URL+"/page1", r.URL)
	assert.Equal(t, "A language empowering everyone.", r.Snippet)
	assert.True(t, strings.HasPrefix(r.Content, "T word word"), r.Content)
	assert.NotContains(t, r.Content, "var x")
	assert.Len(t, r.Content, DefaultPreviewLength+3)
	assert.True(t, strings.HasSuffix(r.Content, "..."))
}

func TestSearch_KeepUnfetched(t *testing.T) {
	stub := newStub(t, "short page")
	results, err := stub.client(WithKeepUnfetched(true)).Search(context.Background(), "rust")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "T short page", results[0].Content)
	assert.Equal(t, "The Rust Book", results[1].Title)
	assert.Equal(t, "Learn Rust.", results[1].Snippet)
	assert.Equal(t, ContentUnavailable, results[1].Content)
}

func TestSearch_MaxResults(t *testing.T) {
	stub := newStub(t, "x")
	results, err := stub.client(WithMaxResults(1), WithKeepUnfetched(true)).Search(context.Background(), "rust")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_NoResults(t *testing.T) {
	stub := newStub(t, "")
	results, err := stub.client().Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_EmptyQuery(t *testing.T) {
	stub := newStub(t, "")
	_, err := stub.client().Search(context.Background(), "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, stub.requests.Load())
}

func TestSearch_EndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(WithHTTPClient(srv.Client()), WithEndpoint(srv.URL))
	_, err := c.Search(context.Background(), "rust")
	assert.ErrorIs(t, err, apperr.ErrExecution)
}

func TestSearch_SearchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(WithHTTPClient(srv.Client()), WithEndpoint(srv.URL), WithTimeouts(100*time.Millisecond, time.Second))
	start := time.Now()
	_, err := c.Search(context.Background(), "rust")
	assert.ErrorIs(t, err, apperr.ErrExecution)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSearchSync(t *testing.T) {
	stub := newStub(t, "sync page")
	results, err := stub.client().SearchSync("rust")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "T sync page", results[0].Content)
}

func TestParseResults_UnwrapsRedirects(t *testing.T) {
	page := fmt.Sprintf(resultsTemplate, url.QueryEscape("https://www.rust-lang.org/"), "https://doc.rust-lang.org/book/")
	results := ParseResults([]byte(page), 0)
	require.Len(t, results, 2)
	assert.Equal(t, "https://www.rust-lang.org/", results[0].URL)
	assert.Equal(t, "https://doc.rust-lang.org/book/", results[1].URL)
}

func TestVisibleText(t *testing.T) {
	page := `<html><head><meta name="x" content="meta text"><link rel="stylesheet" href="a.css"></head>
<body><h1>Title</h1>
<div aria-hidden="true">hidden</div><div hidden>also hidden</div>
<noscript>enable js</noscript>
<p>Hello,
   world</p></body></html>`
	assert.Equal(t, "Title Hello, world", VisibleText([]byte(page)))
}

func TestSearch_PreviewCountsRunes(t *testing.T) {
	stub := newStub(t, "hééllo")
	got, err := stub.client(WithPreviewLength(4)).Search(context.Background(), "rust")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "T hé...", got[0].Content)
}
