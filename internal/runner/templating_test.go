package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenarioq/internal/scenario"
)

func TestRenderVariables(t *testing.T) {
	e := NewTemplateEngine()
	data := TemplateData{UserID: "user-1", UUID: "req-9"}

	out, err := e.Render("/users/{{userID}}/orders/{{uuid}}?r={{requestID}}", data)
	require.NoError(t, err)
	assert.Equal(t, "/users/user-1/orders/req-9?r=req-9", out)

	out, err = e.Render("plain", data)
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
}

func TestRenderFunctions(t *testing.T) {
	e := NewTemplateEngine()

	out, err := e.Render(`{{randomInt 5 6}}`, TemplateData{})
	require.NoError(t, err)
	assert.Equal(t, "5", out)

	out, err = e.Render(`{{randomChoice "x"}}`, TemplateData{})
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	out, err = e.Render(`{{randomUUID}}`, TemplateData{})
	require.NoError(t, err)
	_, err = uuid.Parse(out)
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n  only  \n\n"), 0644))
	out, err = e.Render(`{{randomLine "`+path+`"}}`, TemplateData{})
	require.NoError(t, err)
	assert.Equal(t, "only", out)
}

func TestRenderErrors(t *testing.T) {
	e := NewTemplateEngine()

	_, err := e.Render("{{", TemplateData{})
	assert.Error(t, err)

	_, err = e.Render(`{{randomLine "/does/not/exist"}}`, TemplateData{})
	assert.Error(t, err)
}

func TestRenderSpecCopies(t *testing.T) {
	e := NewTemplateEngine()
	spec := scenario.RequestSpec{
		Name:     "create",
		Endpoint: "/u/{{userID}}",
		Headers:  map[string]string{"X-Req": "{{uuid}}"},
		Body:     `{"id":"{{userID}}"}`,
		MultiPartContents: []scenario.MultipartPart{
			{Name: "owner", Value: "{{userID}}"},
		},
	}

	out, err := e.RenderSpec(spec, TemplateData{UserID: "u1", UUID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, "/u/u1", out.Endpoint)
	assert.Equal(t, "r1", out.Headers["X-Req"])
	assert.Equal(t, `{"id":"u1"}`, out.Body)
	assert.Equal(t, "u1", out.MultiPartContents[0].Value)

	assert.Equal(t, "{{uuid}}", spec.Headers["X-Req"])
	assert.Equal(t, "{{userID}}", spec.MultiPartContents[0].Value)
}
