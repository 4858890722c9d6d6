package fillrunner

import (
	"context"
	"testing"
	"time"

	"github.com/openclaw/plashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tmplWithFields() *domain.Template {
	return &domain.Template{
		ID:   "ops",
		Name: "Ops",
		Fields: []domain.FieldSpec{
			{ID: "summary", Type: domain.FieldString, Prompt: "p"},
			{ID: "count", Type: domain.FieldNumber, Prompt: "p"},
			{ID: "flag", Type: domain.FieldBoolean, Prompt: "p"},
			{ID: "items", Type: domain.FieldArray, Prompt: "p"},
		},
	}
}

func TestMockReturnsCurrentValueWhenCompatible(t *testing.T) {
	m := &Mock{}
	resp, err := m.Run(context.Background(), FillContext{
		Template:      tmplWithFields(),
		CurrentValues: map[string]any{"summary": "keep me", "count": 3.0, "flag": true, "items": []any{"a"}},
	})
	require.NoError(t, err)
	values := resp["values"].(map[string]any)
	assert.Equal(t, "keep me", values["summary"])
	assert.Equal(t, 3.0, values["count"])
	assert.Equal(t, true, values["flag"])
	assert.Equal(t, []any{"a"}, values["items"])
}

func TestMockReturnsPlaceholderWhenIncompatible(t *testing.T) {
	m := &Mock{Now: func() time.Time { return time.Unix(1000, 0) }}
	resp, err := m.Run(context.Background(), FillContext{
		Template:      tmplWithFields(),
		CurrentValues: map[string]any{"summary": 42.0, "count": "nope", "flag": "nope", "items": "nope"},
	})
	require.NoError(t, err)
	values := resp["values"].(map[string]any)
	assert.Equal(t, "mock-summary-1000", values["summary"])
	assert.Equal(t, float64(0), values["count"])
	assert.Equal(t, false, values["flag"])
	assert.Equal(t, []any{}, values["items"])
}

func TestMockNeverFails(t *testing.T) {
	m := &Mock{}
	_, err := m.Run(context.Background(), FillContext{Template: &domain.Template{}})
	assert.NoError(t, err)
}

func TestParseOutputBareObject(t *testing.T) {
	got, err := ParseOutput(`{"values": {"a": 1}}`, "test")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, got["values"])
}

func TestParseOutputFenced(t *testing.T) {
	raw := "```json\n{\"values\": {\"a\": 1}}\n```"
	got, err := ParseOutput(raw, "test")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, got["values"])
}

func TestParseOutputEnvelope(t *testing.T) {
	raw := `some preamble text {"result": "ok", "payload": {"values": {"a": 1}}} trailing`
	got, err := ParseOutput(raw, "test")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, got["values"])
}

func TestParseOutputStringEncodedJSON(t *testing.T) {
	raw := `"{\"values\": {\"a\": 1}}"`
	got, err := ParseOutput(raw, "test")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, got["values"])
}

func TestParseOutputArrayFirstHitWins(t *testing.T) {
	raw := `[{"nothing": true}, {"values": {"a": 1}}]`
	got, err := ParseOutput(raw, "test")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, got["values"])
}

func TestParseOutputUnparseableFails(t *testing.T) {
	_, err := ParseOutput("not json at all", "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFillParseError)
}

func TestCommandDisabledFailsCleanly(t *testing.T) {
	c := &Command{Command: "echo hi", Allow: false}
	_, err := c.Run(context.Background(), FillContext{Template: tmplWithFields()})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestCommandRunsAndParsesStdout(t *testing.T) {
	c := &Command{
		Command:        `printf '{"values": {"summary": "from shell"}}'`,
		Allow:          true,
		SessionTimeout: 5 * time.Second,
	}
	resp, err := c.Run(context.Background(), FillContext{Template: tmplWithFields()})
	require.NoError(t, err)
	values := resp["values"].(map[string]any)
	assert.Equal(t, "from shell", values["summary"])
}

func TestCommandTimeoutIsKilled(t *testing.T) {
	c := &Command{
		Command:        "sleep 5",
		Allow:          true,
		SessionTimeout: 100 * time.Millisecond,
	}
	_, err := c.Run(context.Background(), FillContext{Template: tmplWithFields()})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFillProviderError)
}

func TestCommandPropagatesPromptEnvVar(t *testing.T) {
	c := &Command{
		Command:        `[ -n "$` + PromptEnvVar + `" ] && printf '{"values": {}}'`,
		Allow:          true,
		SessionTimeout: 5 * time.Second,
	}
	_, err := c.Run(context.Background(), FillContext{Template: tmplWithFields()})
	require.NoError(t, err, "command should see a non-empty %s", PromptEnvVar)
}
