package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, utils.CountTokens(""))
	assert.Equal(t, 1, utils.CountTokens("hi"))
	assert.Equal(t, 1000, utils.CountTokens(strings.Repeat("a", 4000)))
	assert.Equal(t, 1, utils.CountTokens("地区"), "counts runes, not bytes")
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000)
	trunc := utils.TruncateToTokenLimit(text, 300)
	assert.LessOrEqual(t, utils.CountTokens(trunc), 300)
	assert.True(t, strings.HasSuffix(trunc, "(truncated)"))

	assert.Equal(t, "short", utils.TruncateToTokenLimit("short", 10))
	assert.Empty(t, utils.TruncateToTokenLimit("x", 0))
}

func TestSafeWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, utils.SafeWriteFile(path, []byte("{}")))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"rows": 4})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"rows\": 4\n}", string(b))
}
