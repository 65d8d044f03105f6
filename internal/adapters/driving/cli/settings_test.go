package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func withStdin(t *testing.T, input string) {
	t.Helper()
	old := stdin
	stdin = strings.NewReader(input)
	t.Cleanup(func() { stdin = old })
}

func TestSettingsCmd_ServiceNotConfigured(t *testing.T) {
	SetServices(nil)

	for _, args := range [][]string{
		{"settings"},
		{"settings", "set", "retrieval.top_k", "3"},
		{"settings", "keys"},
		{"settings", "embedding"},
		{"settings", "llm"},
		{"settings", "wizard"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "settings service not configured")
	}
}

func TestSettingsShow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM = domain.LLMSettings{
		Provider:    domain.AIProviderOpenAI,
		Model:       "gpt-4o-mini",
		APIKey:      "sk-1234567890abcdef",
		Temperature: 0.2,
	}

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Model: nomic-embed-text")
	assert.Contains(t, out, "Base URL: http://localhost:11434")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.Contains(t, out, "Size: 300")
	assert.Contains(t, out, "Overlap: 50")
	assert.Contains(t, out, "Top K: 1")
	assert.Contains(t, out, "Backend: sqlite")
	assert.Contains(t, out, "Address: :8000")
	assert.Contains(t, out, "Configuration is valid.")
	assert.NotContains(t, out, "sk-1234567890abcdef")
}

func TestSettingsShow_ValidationWarning(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New("chunk overlap must be smaller than chunk size")

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: chunk overlap must be smaller than chunk size")
	assert.Contains(t, out, "codetutor settings wizard")
}

func TestSettingsSet(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "set", "chunking.size", "500")

	require.NoError(t, err)
	assert.Equal(t, "500", ts.settings.set["chunking.size"])
	assert.Contains(t, out, "chunking.size = 500")
}

func TestSettingsSet_MasksAPIKey(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "set", "llm.api_key", "sk-ant-abcdefghijkl")

	require.NoError(t, err)
	assert.Contains(t, out, "llm.api_key = sk-a...ijkl")
}

func TestSettingsSet_Invalid(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.setErr = fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidArgument, "nope")

	_, err := execute(t, "settings", "set", "nope", "1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSettingsSet_RequiresTwoArgs(t *testing.T) {
	_, err := execute(t, "settings", "set", "chunking.size")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestSettingsKeys(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, "chunking.overlap\nchunking.size\nretrieval.top_k\n", out)
}

func TestSettingsEmbedding_Defaults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	withStdin(t, "\n\n")

	out, err := execute(t, "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, []string{"ollama", "nomic-embed-text", ""}, ts.settings.embedding)
	assert.Contains(t, out, "Validating configuration... OK")
}

func TestSettingsLLM_OpenAIWithKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	withStdin(t, "2\ngpt-4o\nsk-test-key-123\n")

	_, err := execute(t, "settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, []string{"openai", "gpt-4o", "sk-test-key-123"}, ts.settings.llm)
}

func TestSettingsLLM_ValidationFails(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.pingErr = errors.New("connection refused")
	withStdin(t, "1\n\n")

	out, err := execute(t, "settings", "llm")

	require.Error(t, err)
	assert.Contains(t, out, "FAILED: connection refused")
	assert.Contains(t, err.Error(), "LLM configuration validation failed")
}

func TestSettingsWizard(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	withStdin(t, "1\n\n3\n\nsk-ant-key\n")

	out, err := execute(t, "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, []string{"ollama", "nomic-embed-text", ""}, ts.settings.embedding)
	assert.Equal(t, []string{"anthropic", "claude-3-5-sonnet-latest", "sk-ant-key"}, ts.settings.llm)
	assert.Contains(t, out, "All settings are valid and saved.")
}

func TestSettingsKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	withStdin(t, "sk-secret-value-42\n")

	out, err := execute(t, "settings", "key", "llm")

	require.NoError(t, err)
	assert.Equal(t, "sk-secret-value-42", ts.settings.set["llm.api_key"])
	assert.Contains(t, out, "llm API key stored (sk-s...e-42)")
	assert.NotContains(t, out, "sk-secret-value-42")
}

func TestSettingsKey_Errors(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "settings", "key", "vector")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	withStdin(t, "\n")
	_, err = execute(t, "settings", "key", "embedding")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}
