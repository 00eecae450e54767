package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgc-assistant/internal/config"
)

func TestLoadConfigFileBeforeFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bgc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: 7\nmodel: from-file\n"), 0o644))

	cfg := config.NewConfig()
	require.NoError(t, loadConfigFile(cfg, []string{"--lang", "ar", "--config", path, "ask", "hello"}))
	assert.Equal(t, 7, cfg.TopK)

	cmd := newRootCommand(cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--model", "from-flag", "--config", path}))
	assert.Equal(t, "from-flag", cfg.ModelName)
	assert.Equal(t, 7, cfg.TopK)

	fresh := config.NewConfig()
	require.NoError(t, loadConfigFile(fresh, []string{"ask", "hello"}))
	assert.Equal(t, 4, fresh.TopK)

	assert.Error(t, loadConfigFile(fresh, []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))
}

func TestNewAppWithoutRetriever(t *testing.T) {
	cfg := config.NewConfig()
	cfg.RetrieverURL = ""
	cfg.LLMBaseURL = "http://127.0.0.1:0/"

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "gemma2-9b-it", a.model)
	assert.Empty(t, a.session.Startup(context.Background()))
	assert.True(t, a.session.RetrievalDisabled())
}
