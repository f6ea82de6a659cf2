package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  allowed_users: ["42"]
download:
  work_dir: /tmp/videodlbot-test
  max_file_size_mib: 200
  direct_limit_mib: 25
storage:
  endpoint: s3.example.com
  bucket: videos
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", config.Telegram.Token)
	assert.Equal(t, []string{"42"}, config.Telegram.AllowedUsers)
	assert.Equal(t, int64(200*1048576), config.Download.MaxFileSize())
	assert.Equal(t, int64(25*1048576), config.Download.DirectLimit())
	assert.True(t, config.Storage.Configured())
	// Defaults survive partial config
	assert.Equal(t, "yt-dlp", config.Download.YTDLPBinary)
	assert.Equal(t, []string{"youtube"}, config.Download.ReencodeExtractors)
}

func TestLoadConfig_MissingToken(t *testing.T) {
	path := writeConfig(t, `
download:
  work_dir: /tmp/videodlbot-test
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram token")
}

func TestLoadConfig_DirectLimitAboveMax(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
download:
  max_file_size_mib: 10
  direct_limit_mib: 50
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below direct delivery limit")
}

func TestLoadConfig_ZeroDirectLimit(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
download:
  direct_limit_mib: 0
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direct delivery limit")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "work"), expandPath("~/work"))
	assert.Equal(t, home+"/work", expandPath("$HOME/work"))
	assert.Equal(t, "/absolute/path", expandPath("/absolute/path"))
}
