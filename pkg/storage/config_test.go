package storage

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewConfig(t *testing.T) {
	t.Run("reads azure section", func(t *testing.T) {
		// Arrange
		v := viper.New()
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
storage:
  blob:
    provider: azure
    create-container: true
    azure:
      connection-string: UseDevelopmentStorage=true
      container: raw-events
  upload-concurrency: 4
`)))

		// Act
		cfg, err := newConfig(v, zap.NewNop())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, BlobProviderAzure, cfg.Blob.Provider)
		assert.True(t, cfg.Blob.CreateContainer)
		assert.Equal(t, "UseDevelopmentStorage=true", cfg.Blob.Azure.ConnectionString)
		assert.Equal(t, "raw-events", cfg.Blob.Azure.Container)
		assert.Equal(t, 4, cfg.UploadConcurrency)
		assert.Equal(t, "match_events", cfg.RecordsCollection)
		assert.Equal(t, "failed_executions", cfg.ExecutionsCollection)
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		v := viper.New()
		v.Set("storage.blob.provider", "s3")

		_, err := newConfig(v, zap.NewNop())

		assert.ErrorContains(t, err, "blob provider")
	})
}
