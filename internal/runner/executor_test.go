package runner

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenarioq/internal/scenario"
)

type captured struct {
	method      string
	path        string
	auth        string
	contentType string
	header      http.Header
	body        []byte
}

func captureServer(t *testing.T, status int, reply string) (*httptest.Server, chan captured) {
	t.Helper()
	seen := make(chan captured, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen <- captured{
			method:      r.Method,
			path:        r.URL.RequestURI(),
			auth:        r.Header.Get("Authorization"),
			contentType: r.Header.Get("Content-Type"),
			header:      r.Header.Clone(),
			body:        b,
		}
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "http://h/api/x", JoinURL("http://h/", "/api/x"))
	assert.Equal(t, "http://h/api/x", JoinURL("http://h", "api/x"))
	assert.Equal(t, "http://h/base/api/x?q=1", JoinURL("http://h/base//", "//api/x?q=1"))
}

func TestExecuteJSONBody(t *testing.T) {
	srv, seen := captureServer(t, http.StatusCreated, "ok")
	exec := &Executor{BaseURL: srv.URL + "/", AuthHeader: "APIKEY secret"}

	res := exec.Execute(context.Background(), srv.Client(), scenario.RequestSpec{
		Name:     "login",
		Endpoint: "/api/login",
		Method:   "post",
		Headers:  map[string]string{"X-Trace": "abc"},
		Body:     `{"u":"a"}`,
	})

	assert.True(t, res.Success)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "login", res.RequestName)
	assert.Empty(t, res.Error)
	assert.Greater(t, res.Duration, time.Duration(0))

	got := <-seen
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/login", got.path)
	assert.Equal(t, "APIKEY secret", got.auth)
	assert.Equal(t, DefaultContentType, got.contentType)
	assert.Equal(t, "abc", got.header.Get("X-Trace"))
	assert.Equal(t, `{"u":"a"}`, string(got.body))
}

func TestExecuteContentTypeSelectsEncoding(t *testing.T) {
	srv, seen := captureServer(t, http.StatusOK, "")
	exec := &Executor{BaseURL: srv.URL}

	exec.Execute(context.Background(), srv.Client(), scenario.RequestSpec{
		Name:     "form",
		Endpoint: "form",
		Method:   "PUT",
		Headers:  map[string]string{"content-type": "application/x-www-form-urlencoded"},
		Body:     "a=1&b=2",
	})

	got := <-seen
	assert.Equal(t, "application/x-www-form-urlencoded", got.contentType)
	assert.Equal(t, "a=1&b=2", string(got.body))
}

func TestExecuteGetSendsNoBody(t *testing.T) {
	srv, seen := captureServer(t, http.StatusOK, "")
	exec := &Executor{BaseURL: srv.URL}

	res := exec.Execute(context.Background(), srv.Client(), scenario.RequestSpec{
		Name: "items", Endpoint: "/api/items", Method: "GET", Body: "ignored",
	})
	require.True(t, res.Success)

	got := <-seen
	assert.Empty(t, got.body)
	assert.Empty(t, got.contentType)
	assert.Empty(t, got.auth)
}

func TestExecuteNon2xxCapturesBody(t *testing.T) {
	srv, _ := captureServer(t, http.StatusInternalServerError, strings.Repeat("x", 5000))
	exec := &Executor{BaseURL: srv.URL}

	res := exec.Execute(context.Background(), srv.Client(), scenario.RequestSpec{Name: "boom", Endpoint: "/", Method: "GET"})

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Len(t, res.Error, maxErrorBody)
}

func TestExecuteRedirectStatusIsFailure(t *testing.T) {
	srv, _ := captureServer(t, http.StatusNotModified, "")
	exec := &Executor{BaseURL: srv.URL}

	res := exec.Execute(context.Background(), srv.Client(), scenario.RequestSpec{Name: "cache", Endpoint: "/", Method: "GET"})
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusNotModified, res.StatusCode)
	assert.NotEmpty(t, res.Error)
}

func TestExecuteTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	exec := &Executor{BaseURL: base}
	res := exec.Execute(context.Background(), &http.Client{Timeout: time.Second}, scenario.RequestSpec{Name: "down", Endpoint: "/", Method: "GET"})

	assert.False(t, res.Success)
	assert.Equal(t, 0, res.StatusCode)
	assert.NotEmpty(t, res.Error)
}

func TestExecuteBadMethodIsFailedResult(t *testing.T) {
	exec := &Executor{BaseURL: "http://localhost"}
	res := exec.Execute(context.Background(), http.DefaultClient, scenario.RequestSpec{Name: "bad", Endpoint: "/", Method: "BAD METHOD"})

	assert.False(t, res.Success)
	assert.Equal(t, 0, res.StatusCode)
	assert.Contains(t, res.Error, "failed to build request")
}

func TestExecuteMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("from disk"), 0644))

	srv, seen := captureServer(t, http.StatusOK, "")
	exec := &Executor{BaseURL: srv.URL}

	res := exec.Execute(context.Background(), srv.Client(), scenario.RequestSpec{
		Name:     "upload",
		Endpoint: "/api/upload",
		Method:   "POST",
		Headers:  map[string]string{"Content-Type": "multipart/form-data"},
		Body:     "must not be sent",
		MultiPartContents: []scenario.MultipartPart{
			{Name: "title", Value: "quarterly"},
			{Name: "b64", Value: base64.StdEncoding.EncodeToString([]byte("decoded bytes")), FileName: "a.bin", ContentType: "application/pdf"},
			{Name: "disk", Value: path, FileName: "doc.txt"},
			{Name: "literal", Value: "plain text!", FileName: "note.txt", ContentType: "text/plain"},
		},
	})
	require.True(t, res.Success, res.Error)

	got := <-seen
	mediaType, params, err := mime.ParseMediaType(got.contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	assert.NotContains(t, string(got.body), "must not be sent")

	mr := multipart.NewReader(strings.NewReader(string(got.body)), params["boundary"])
	parts := map[string]string{}
	types := map[string]string{}
	files := map[string]string{}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, _ := io.ReadAll(p)
		parts[p.FormName()] = string(b)
		types[p.FormName()] = p.Header.Get("Content-Type")
		files[p.FormName()] = p.FileName()
	}

	assert.Equal(t, "quarterly", parts["title"])
	assert.Equal(t, "decoded bytes", parts["b64"])
	assert.Equal(t, "application/pdf", types["b64"])
	assert.Equal(t, "a.bin", files["b64"])
	assert.Equal(t, "from disk", parts["disk"])
	assert.Equal(t, "application/octet-stream", types["disk"])
	assert.Equal(t, "plain text!", parts["literal"])
}

func TestResolvePartValue(t *testing.T) {
	assert.Equal(t, []byte("hello"), ResolvePartValue("aGVsbG8="))
	assert.Equal(t, []byte("not base64!"), ResolvePartValue("not base64!"))
	assert.Equal(t, []byte(""), ResolvePartValue(""))

	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("file body"), 0644))
	assert.Equal(t, []byte("file body"), ResolvePartValue(path))
}
