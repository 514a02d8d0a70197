package logging

import (
	"os"
	"path/filepath"
	"testing"

	"round1/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	log, err := Init(config.LoggingConfig{Directory: dir, Level: "info", MaxSize: 1})
	require.NoError(t, err)

	log.Info("session started")
	log.Debug("filtered out")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "round1.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"session started"`)
	assert.NotContains(t, string(data), "filtered out")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	_, err := Init(config.LoggingConfig{Directory: t.TempDir(), Level: "loud"})
	assert.Error(t, err)
}
