package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrEmptyScenario = errors.New("scenario has no requests")

// MultipartPart is one form field of a multipart/form-data request.
// Value holds base64 bytes, a file path or literal text, resolved in that order at send time.
type MultipartPart struct {
	Name        string `json:"Name"`
	Value       string `json:"Value"`
	FileName    string `json:"FileName,omitempty"`
	ContentType string `json:"ContentType,omitempty"`
}

// IsFile reports whether the part should be sent as a file upload.
func (p MultipartPart) IsFile() bool {
	return p.FileName != ""
}

// RequestSpec describes one request of a user session.
// ThinkTimeMs is the pause applied after the request completes.
type RequestSpec struct {
	Name              string            `json:"Name"`
	Endpoint          string            `json:"Endpoint"`
	Method            string            `json:"Method"`
	Headers           map[string]string `json:"Headers,omitempty"`
	Body              string            `json:"Body,omitempty"`
	MultiPartContents []MultipartPart   `json:"MultiPartContents,omitempty"`
	ThinkTimeMs       int               `json:"ThinkTimeMs"`
}

// ContentType returns the Content-Type header of the request (case-insensitive), if any.
func (r RequestSpec) ContentType() string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, "Content-Type") {
			return v
		}
	}
	return ""
}

// IsMultipart reports whether the request declares a multipart/form-data body.
func (r RequestSpec) IsMultipart() bool {
	return strings.Contains(strings.ToLower(r.ContentType()), "multipart/form-data")
}

// Scenario is the ordered request list replayed by every virtual user.
type Scenario struct {
	Requests []RequestSpec `json:"requests"`
}

// Normalize maps empty Headers and MultiPartContents to nil so that a scenario
// compares equal to itself after a JSON round-trip.
func (s *Scenario) Normalize() {
	for i := range s.Requests {
		r := &s.Requests[i]
		if len(r.Headers) == 0 {
			r.Headers = nil
		}
		if len(r.MultiPartContents) == 0 {
			r.MultiPartContents = nil
		}
		r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
		if r.Method == "" {
			r.Method = "GET"
		}
	}
}

// Validate checks the scenario for data that would make a replay meaningless.
func (s *Scenario) Validate() error {
	if len(s.Requests) == 0 {
		return ErrEmptyScenario
	}
	for i, r := range s.Requests {
		if r.ThinkTimeMs < 0 {
			return fmt.Errorf("request %d (%s): negative think time %d", i, r.Name, r.ThinkTimeMs)
		}
		if r.Endpoint == "" {
			return fmt.Errorf("request %d (%s): empty endpoint", i, r.Name)
		}
	}
	return nil
}

// Parse decodes a scenario document and normalises it.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	s.Normalize()
	return &s, nil
}

// Marshal encodes the scenario as indented JSON.
func Marshal(s *Scenario) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Load reads, parses and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return s, nil
}

// Save writes the scenario to path.
func Save(s *Scenario, path string) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
