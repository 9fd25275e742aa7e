package runner

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"scenarioq/internal/scenario"
	"scenarioq/internal/stats"
)

const (
	DefaultContentType = "application/json"

	// maxErrorBody bounds the response body kept for a failed call.
	maxErrorBody = 1024
)

// Executor issues single HTTP calls for request specs against one base URL.
// It holds no mutable state and is shared by all virtual users.
type Executor struct {
	BaseURL    string
	AuthHeader string
}

func NewExecutor(cfg Config) *Executor {
	return &Executor{
		BaseURL:    cfg.BaseURL,
		AuthHeader: cfg.AuthHeader(),
	}
}

// JoinURL joins base and endpoint with exactly one slash.
func JoinURL(base, endpoint string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// Execute performs exactly one call and never fails: every problem is
// encoded in the returned result.
func (e *Executor) Execute(ctx context.Context, client *http.Client, spec scenario.RequestSpec) stats.RequestResult {
	res := stats.RequestResult{RequestName: spec.Name}

	req, err := e.BuildRequest(ctx, spec)
	if err != nil {
		res.Error = fmt.Sprintf("failed to build request: %v", err)
		return res
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		res.Duration = time.Since(start)
		res.Error = err.Error()
		return res
	}

	res.StatusCode = resp.StatusCode
	res.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !res.Success {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		res.Error = string(b)
		if res.Error == "" {
			res.Error = resp.Status
		}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	res.Duration = time.Since(start)

	return res
}

// BuildRequest turns a spec into an *http.Request bound to ctx.
func (e *Executor) BuildRequest(ctx context.Context, spec scenario.RequestSpec) (*http.Request, error) {
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}

	contentType := spec.ContentType()
	if contentType == "" {
		contentType = DefaultContentType
	}

	var body io.Reader
	if hasBody(method) {
		if strings.Contains(strings.ToLower(contentType), "multipart/form-data") {
			buf, ct, err := buildMultipart(spec.MultiPartContents)
			if err != nil {
				return nil, err
			}
			body, contentType = buf, ct
		} else if spec.Body != "" {
			body = strings.NewReader(spec.Body)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, JoinURL(e.BaseURL, spec.Endpoint), body)
	if err != nil {
		return nil, err
	}

	for k, v := range spec.Headers {
		switch {
		case strings.EqualFold(k, "Content-Type"):
			// selects the body encoding only
		case strings.EqualFold(k, "Host"):
			req.Host = v
		default:
			req.Header.Set(k, v)
		}
	}
	if e.AuthHeader != "" {
		req.Header.Set("Authorization", e.AuthHeader)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func buildMultipart(parts []scenario.MultipartPart) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		value := []byte(p.Value)
		if p.IsFile() {
			value = ResolvePartValue(p.Value)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				quoteEscaper.Replace(p.Name), quoteEscaper.Replace(p.FileName)))
			ct := p.ContentType
			if ct == "" {
				ct = "application/octet-stream"
			}
			h.Set("Content-Type", ct)
		} else {
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(p.Name)))
			if p.ContentType != "" {
				h.Set("Content-Type", p.ContentType)
			}
		}

		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("multipart part %s: %w", p.Name, err)
		}
		if _, err := pw.Write(value); err != nil {
			return nil, "", fmt.Errorf("multipart part %s: %w", p.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// ResolvePartValue returns the bytes of a file part: base64 content first,
// then the contents of an existing file, then the literal text.
func ResolvePartValue(v string) []byte {
	if v != "" {
		if b, err := base64.StdEncoding.DecodeString(v); err == nil {
			return b
		}
	}
	if info, err := os.Stat(v); err == nil && !info.IsDir() {
		if b, err := os.ReadFile(v); err == nil {
			return b
		}
	}
	return []byte(v)
}
