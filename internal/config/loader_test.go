package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultUpdateBuffer, cfg.Manager.UpdateBuffer)
	assert.Zero(t, cfg.Manager.SlowLoadThreshold)
	assert.Equal(t, filepath.Join(dir, "cards"), cfg.Sources.CardsDir)
	assert.Equal(t, DefaultDebounce, cfg.Sources.Debounce)
	assert.Equal(t, DefaultPollInterval, cfg.Conditional.PollInterval)
	assert.Nil(t, cfg.SavedCards)
}

func TestLoadConfig_Override(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
manager:
  slowLoadThreshold: 2s
  keepShownOnReload: true
sources:
  cardsDir: /var/lib/deckhand
  debounce: 50ms
conditional:
  collapseThreshold: 3
  conditions:
    - name: airplane_mode
      path: /run/airplane
      score: 0.9
      title: "{{ .name | upper }}"
suggestions:
  - name: wallpaper
    score: 0.1
    title: Pick a wallpaper
savedCards: [airplane_mode]
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Manager.SlowLoadThreshold)
	assert.True(t, cfg.Manager.KeepShownOnReload)
	assert.Equal(t, DefaultUpdateBuffer, cfg.Manager.UpdateBuffer, "unset fields keep their defaults")
	assert.Equal(t, "/var/lib/deckhand", cfg.Sources.CardsDir)
	assert.Equal(t, 50*time.Millisecond, cfg.Sources.Debounce)
	assert.Equal(t, 3, cfg.Conditional.CollapseThreshold)
	require.Len(t, cfg.Conditional.Conditions, 1)
	assert.Equal(t, "/run/airplane", cfg.Conditional.Conditions[0].Path)
	require.Len(t, cfg.Suggestions, 1)
	assert.Equal(t, []string{"airplane_mode"}, cfg.SavedCards)
}

func TestLoadConfig_RelativeCardsDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "sources:\n  cardsDir: live\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "live"), cfg.Sources.CardsDir)
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "manager: [")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "manager:\n  slowLoadThreshold: -1s\n")

	_, err := LoadConfig(dir)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "manager.slowLoadThreshold", verrs[0].Field)
}

func TestGetDefaultConfigPathOrPanic(t *testing.T) {
	assert.Contains(t, GetDefaultConfigPathOrPanic(), filepath.Join(".config", "deckhand"))
}
