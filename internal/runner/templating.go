package runner

import (
	"bufio"
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"scenarioq/internal/scenario"
)

// TemplateEngine renders request fields for one virtual user.
// It is owned by that user and is not safe for concurrent use.
type TemplateEngine struct {
	fileCache map[string][]string
	cache     map[string]*template.Template
	funcMap   template.FuncMap
}

// TemplateData is passed to the execution context
type TemplateData struct {
	UserID string
	UUID   string
}

// NewTemplateEngine initializes the engine and its functions
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		fileCache: make(map[string][]string),
		cache:     make(map[string]*template.Template),
	}

	e.funcMap = template.FuncMap{
		"randomInt":    e.randomInt,
		"randomUUID":   e.randomUUID,
		"randomChoice": e.randomChoice,
		"randomLine":   e.randomLine,
		"uuid":         e.randomUUID, // Alias
	}

	return e
}

// Preprocess converts simple variables {{userID}} to Go template syntax {{.UserID}}
func (e *TemplateEngine) Preprocess(input string) string {
	s := input
	s = strings.ReplaceAll(s, "{{userID}}", "{{.UserID}}")
	s = strings.ReplaceAll(s, "{{uuid}}", "{{.UUID}}")
	s = strings.ReplaceAll(s, "{{requestID}}", "{{.UUID}}")
	return s
}

// Parse creates a new template with the engine's functions
func (e *TemplateEngine) Parse(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(e.funcMap).Parse(e.Preprocess(text))
}

// Execute runs the template with data
func (e *TemplateEngine) Execute(t *template.Template, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render expands text, parsing it at most once. Text without actions is returned as is.
func (e *TemplateEngine) Render(text string, data TemplateData) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	t, ok := e.cache[text]
	if !ok {
		var err error
		t, err = e.Parse("field", text)
		if err != nil {
			return "", err
		}
		e.cache[text] = t
	}
	return e.Execute(t, data)
}

// RenderSpec returns a copy of spec with every templated field expanded.
// The shared scenario value is never modified.
func (e *TemplateEngine) RenderSpec(spec scenario.RequestSpec, data TemplateData) (scenario.RequestSpec, error) {
	out := spec
	var err error

	if out.Endpoint, err = e.Render(spec.Endpoint, data); err != nil {
		return out, fmt.Errorf("endpoint template: %w", err)
	}
	if out.Body, err = e.Render(spec.Body, data); err != nil {
		return out, fmt.Errorf("body template: %w", err)
	}
	if spec.Headers != nil {
		out.Headers = make(map[string]string, len(spec.Headers))
		for k, v := range spec.Headers {
			if out.Headers[k], err = e.Render(v, data); err != nil {
				return out, fmt.Errorf("header %s template: %w", k, err)
			}
		}
	}
	if spec.MultiPartContents != nil {
		out.MultiPartContents = make([]scenario.MultipartPart, len(spec.MultiPartContents))
		for i, p := range spec.MultiPartContents {
			if p.Value, err = e.Render(p.Value, data); err != nil {
				return out, fmt.Errorf("part %s template: %w", p.Name, err)
			}
			out.MultiPartContents[i] = p
		}
	}
	return out, nil
}

// --- Functions ---

func (e *TemplateEngine) randomInt(min, max int) int {
	if max <= min {
		return min
	}
	return rand.Intn(max-min) + min
}

func (e *TemplateEngine) randomUUID() string {
	return uuid.New().String()
}

func (e *TemplateEngine) randomChoice(choices ...string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[rand.Intn(len(choices))]
}

func (e *TemplateEngine) randomLine(filename string) (string, error) {
	lines, ok := e.fileCache[filename]
	if !ok {
		content, err := os.ReadFile(filename)
		if err != nil {
			return "", fmt.Errorf("failed to read file '%s': %w", filename, err)
		}

		scanner := bufio.NewScanner(bytes.NewReader(content))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				lines = append(lines, line)
			}
		}
		e.fileCache[filename] = lines
	}

	if len(lines) == 0 {
		return "", nil
	}
	return lines[rand.Intn(len(lines))], nil
}
