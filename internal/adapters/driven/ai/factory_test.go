package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ollamaembed "github.com/custodia-labs/codetutor/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/codetutor/internal/adapters/driven/embedding/ratelimit"
	anthropicllm "github.com/custodia-labs/codetutor/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/codetutor/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/codetutor/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/codetutor/internal/core/domain"
)

func ollamaServer(t *testing.T, status int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantErr  error
		check    func(t *testing.T, svc any)
	}{
		{
			name:    "nil settings",
			wantErr: domain.ErrEmbeddingUnavailable,
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "unknown"},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
		{
			name:     "openai without key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
		{
			name:     "anthropic has no embeddings",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
		{
			name:     "ollama",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
			check: func(t *testing.T, svc any) {
				assert.IsType(t, &ollamaembed.EmbeddingService{}, svc)
			},
		},
		{
			name: "rate limited",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama, RequestsPerSecond: 5,
			},
			check: func(t *testing.T, svc any) {
				assert.IsType(t, &ratelimit.EmbeddingService{}, svc)
			},
		},
		{
			name:     "openai",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"},
			check: func(t *testing.T, svc any) {
				assert.NotNil(t, svc)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			tt.check(t, svc)
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantErr  bool
		wantType any
	}{
		{name: "nil settings", wantErr: true},
		{name: "anthropic without key", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic}, wantErr: true},
		{name: "ollama", settings: &domain.LLMSettings{Provider: domain.AIProviderOllama}, wantType: &ollamallm.LLMService{}},
		{name: "openai", settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"}, wantType: &openaillm.LLMService{}},
		{name: "anthropic", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}, wantType: &anthropicllm.LLMService{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, svc)
		})
	}
}

func TestCreateServices(t *testing.T) {
	settings := domain.DefaultAppSettings()
	services, err := CreateServices(&settings)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", services.Embedding.ModelName())
	assert.Equal(t, "phi3", services.LLM.ModelName())
	services.Close()

	settings.LLM.Provider = domain.AIProviderOpenAI
	_, err = CreateServices(&settings)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestCreateAndValidate(t *testing.T) {
	up := ollamaServer(t, http.StatusOK)
	down := ollamaServer(t, http.StatusInternalServerError)

	embedder, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, BaseURL: up,
	})
	require.NoError(t, err)
	assert.NotNil(t, embedder)

	_, err = CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, BaseURL: down,
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorContains(t, err, "codetutor settings")

	llm, err := CreateAndValidateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: up})
	require.NoError(t, err)
	assert.NotNil(t, llm)

	_, err = CreateAndValidateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: down})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
