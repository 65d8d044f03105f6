package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "home")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), store.Path())
	assert.DirExists(t, dir)
}

func TestNewConfigStore_DefaultHome(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := NewConfigStore("")
	require.NoError(t, err)

	home, err := DefaultHome()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ConfigFileName), store.Path())
	assert.Equal(t, HomeDirName, filepath.Base(home))
}

func TestNewConfigStore_InvalidDirectory(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create")
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("not toml {{[["), 0600))

	_, err := NewConfigStore(dir)
	assert.ErrorContains(t, err, "parse")
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.model", "phi3"))
	require.NoError(t, store.Set("chunking.size", 300))
	require.NoError(t, store.Set("llm.temperature", 0.2))
	require.NoError(t, store.Set("ui.enabled", true))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "phi3", reopened.GetString("llm.model"))
	assert.Equal(t, 300, reopened.GetInt("chunking.size"))
	assert.InDelta(t, 0.2, reopened.GetFloat("llm.temperature"), 1e-9)
	assert.True(t, reopened.GetBool("ui.enabled"))
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := `
[llm]
provider = "anthropic"
temperature = 1

[retrieval]
top_k = 3

[index]
paths = ["a", "b"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
	assert.InDelta(t, 1.0, store.GetFloat("llm.temperature"), 1e-9)
	assert.Equal(t, 3, store.GetInt("retrieval.top_k"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("index.paths"))

	_, ok := store.Get("llm")
	assert.False(t, ok)
}

func TestConfigStore_TypeMismatchesReturnZero(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("s", "text"))

	assert.Equal(t, 0, store.GetInt("s"))
	assert.Zero(t, store.GetFloat("s"))
	assert.False(t, store.GetBool("s"))
	assert.Nil(t, store.GetStringSlice("s"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SetUnencodableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestConfigStore_LoadAfterExternalEdit(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("server.addr", ":8000"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[server]\naddr = \":9000\"\n"), 0600))
	require.NoError(t, store.Load())
	assert.Equal(t, ":9000", store.GetString("server.addr"))

	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, store.Load())
	_, ok := store.Get("server.addr")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("retrieval.top_k", i)
			_ = store.GetInt("retrieval.top_k")
		}()
	}
	wg.Wait()

	reopened, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reopened.GetInt("retrieval.top_k"), 0)
}
