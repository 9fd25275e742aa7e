package dummy

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, errorRate float64) *httptest.Server {
	t.Helper()
	log, _ := test.NewNullLogger()
	srv := httptest.NewServer(NewHandler(ServerConfig{ErrorRate: errorRate, Log: log}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginAndItems(t *testing.T) {
	srv := newServer(t, 0)

	resp, err := http.Post(srv.URL+"/api/login", "application/json", strings.NewReader(`{"u":"a"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Cookies())

	resp, err = http.Post(srv.URL+"/api/login", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/items")
	require.NoError(t, err)
	defer resp.Body.Close()
	var items []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	assert.Len(t, items, 5)
}

func TestUploadRequiresMultipart(t *testing.T) {
	srv := newServer(t, 0)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("title", "report"))
	fw, err := w.CreateFormFile("file", "r.txt")
	require.NoError(t, err)
	fw.Write([]byte("12345"))
	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/api/upload", w.FormDataContentType(), body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got struct {
		Fields map[string]string `json:"fields"`
		Files  map[string]int64  `json:"files"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "report", got.Fields["title"])
	assert.Equal(t, int64(5), got.Files["file"])

	resp, err = http.Post(srv.URL+"/api/upload", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorEndpoint(t *testing.T) {
	failing := newServer(t, 1)
	resp, err := http.Get(failing.URL + "/error")
	require.NoError(t, err)
	resp.Body.Close()
	assert.GreaterOrEqual(t, resp.StatusCode, 400)

	healthy := newServer(t, 0)
	resp, err = http.Get(healthy.URL + "/error")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
