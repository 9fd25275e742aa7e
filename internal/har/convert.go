package har

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scenarioq/internal/scenario"
)

const (
	DefaultContentType = "application/json"
	DefaultThinkMs     = 1000
	MaxThinkMs         = 30000
)

var ErrNoEntries = errors.New("no matching entries in HAR file")

// Options controls which entries become requests and how they are paced.
type Options struct {
	// Include keeps entries whose URL path contains any of these substrings.
	// Empty keeps every path.
	Include []string
	// ContentTypes keeps entries whose response mime type contains any of these.
	// Empty keeps every response.
	ContentTypes   []string
	DefaultThinkMs int
	MaxThinkMs     int

	Log logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{
		ContentTypes:   []string{DefaultContentType},
		DefaultThinkMs: DefaultThinkMs,
		MaxThinkMs:     MaxThinkMs,
	}
}

// headers the engine sets itself or that tie a request to the recorded session
var droppedHeaders = map[string]bool{
	"host":            true,
	"cookie":          true,
	"authorization":   true,
	"content-length":  true,
	"connection":      true,
	"accept-encoding": true,
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// Parse decodes a HAR document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse HAR file: %w", err)
	}
	return &f, nil
}

// Convert builds a scenario from the entries of f that pass the filters.
func Convert(f *File, opts Options) (*scenario.Scenario, error) {
	if opts.MaxThinkMs <= 0 {
		opts.MaxThinkMs = MaxThinkMs
	}
	if opts.DefaultThinkMs < 0 {
		opts.DefaultThinkMs = 0
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var kept []Entry
	for i, e := range f.Log.Entries {
		u, err := url.Parse(e.Request.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			log.WithField("entry", i).Debug("skipping non-HTTP entry")
			continue
		}
		if !matchAny(u.Path, opts.Include) {
			continue
		}
		if !matchAny(strings.ToLower(e.Response.Content.MimeType), lower(opts.ContentTypes)) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return nil, ErrNoEntries
	}

	sc := &scenario.Scenario{}
	for i, e := range kept {
		spec, err := toRequestSpec(e)
		if err != nil {
			return nil, fmt.Errorf("entry %s %s: %w", e.Request.Method, e.Request.URL, err)
		}
		if i+1 < len(kept) {
			spec.ThinkTimeMs = thinkTime(e, kept[i+1], opts)
		}
		sc.Requests = append(sc.Requests, spec)
	}
	sc.Normalize()
	return sc, nil
}

// ConvertFile reads the HAR document at in and writes the scenario to out.
func ConvertFile(in, out string, opts Options) (*scenario.Scenario, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read HAR file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	sc, err := Convert(f, opts)
	if err != nil {
		return nil, err
	}
	if err := scenario.Save(sc, out); err != nil {
		return nil, err
	}
	return sc, nil
}

func toRequestSpec(e Entry) (scenario.RequestSpec, error) {
	u, err := url.Parse(e.Request.URL)
	if err != nil {
		return scenario.RequestSpec{}, err
	}

	method := strings.ToUpper(e.Request.Method)
	spec := scenario.RequestSpec{
		Name:     RequestName(method, u.Path),
		Endpoint: u.EscapedPath(),
		Method:   method,
		Headers:  map[string]string{},
	}
	if spec.Endpoint == "" {
		spec.Endpoint = "/"
	}
	if u.RawQuery != "" {
		spec.Endpoint += "?" + u.RawQuery
	}

	for _, h := range e.Request.Headers {
		name := strings.ToLower(h.Name)
		if strings.HasPrefix(name, ":") || droppedHeaders[name] {
			continue
		}
		spec.Headers[h.Name] = h.Value
	}

	if pd := e.Request.PostData; pd != nil {
		if strings.Contains(strings.ToLower(pd.MimeType), "multipart/form-data") {
			setContentType(spec.Headers, "multipart/form-data")
			for _, p := range pd.Params {
				spec.MultiPartContents = append(spec.MultiPartContents, scenario.MultipartPart{
					Name:        p.Name,
					Value:       p.Value,
					FileName:    p.FileName,
					ContentType: p.ContentType,
				})
			}
		} else {
			spec.Body = pd.Text
			if pd.MimeType != "" {
				setContentType(spec.Headers, pd.MimeType)
			}
		}
	}
	return spec, nil
}

// setContentType replaces any recorded Content-Type so the header is set once.
func setContentType(h map[string]string, v string) {
	for k := range h {
		if strings.EqualFold(k, "Content-Type") {
			delete(h, k)
		}
	}
	h["Content-Type"] = v
}

func thinkTime(cur, next Entry, opts Options) int {
	a, errA := time.Parse(time.RFC3339Nano, cur.StartedDateTime)
	b, errB := time.Parse(time.RFC3339Nano, next.StartedDateTime)
	if errA != nil || errB != nil || b.Before(a) {
		return min(opts.DefaultThinkMs, opts.MaxThinkMs)
	}
	return int(min(b.Sub(a).Milliseconds(), int64(opts.MaxThinkMs)))
}

// RequestName derives a name like "postLogin" or "getUserOrders" from a path,
// skipping numeric ids, UUIDs, "api" and version segments.
func RequestName(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))

	for _, seg := range strings.Split(path, "/") {
		if seg == "" || strings.EqualFold(seg, "api") || versionSegment.MatchString(strings.ToLower(seg)) {
			continue
		}
		if _, err := strconv.Atoi(seg); err == nil {
			continue
		}
		if _, err := uuid.Parse(seg); err == nil {
			continue
		}
		for _, word := range strings.FieldsFunc(seg, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			b.WriteString(title(word))
		}
	}

	if b.Len() == len(method) {
		b.WriteString("Root")
	}
	return b.String()
}

func title(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func matchAny(s string, subs []string) bool {
	if len(subs) == 0 {
		return true
	}
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lower(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
