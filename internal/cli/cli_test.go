package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestion(t *testing.T) {
	pair, err := parseQuestion("1+1=2")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"phrase": "1+1", "answer": "2"}, pair)

	// The last '=' separates phrase from answer
	pair, err = parseQuestion("a=b=c")
	require.NoError(t, err)
	assert.Equal(t, "a=b", pair["phrase"])
	assert.Equal(t, "c", pair["answer"])

	for _, bad := range []string{"no separator", "=answer", "phrase="} {
		_, err := parseQuestion(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseGameID(t *testing.T) {
	id, err := parseGameID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-1", "x"} {
		_, err := parseGameID(bad)
		assert.Error(t, err, bad)
	}
}

func TestAPIErrorString(t *testing.T) {
	e := APIError{Code: "GAME_FULL", Message: "Game is full"}
	assert.Equal(t, "Game is full (GAME_FULL)", e.String())

	e = APIError{
		Code:    "VALIDATION_FAILED",
		Message: "Validation failed",
		Fields:  map[string]string{"time_limit": "must be at least 60", "address": "is required"},
	}
	assert.Equal(t, "Validation failed (VALIDATION_FAILED): address: is required; time_limit: must be at least 60", e.String())
}

func TestTokenRoundTrip(t *testing.T) {
	c := &Config{TokenFile: filepath.Join(t.TempDir(), "nested", "token")}
	require.NoError(t, c.LoadToken())
	assert.Empty(t, c.Token)

	require.NoError(t, c.SaveToken("abc123"))
	info, err := os.Stat(c.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := &Config{TokenFile: c.TokenFile}
	require.NoError(t, loaded.LoadToken())
	assert.Equal(t, "abc123", loaded.Token)
}

func TestOutputJSONFallback(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("text", &buf).Print(map[string]int{"n": 1})
	assert.JSONEq(t, `{"n":1}`, buf.String())

	buf.Reset()
	NewOutput("json", &buf).PrintMessage("done")
	assert.JSONEq(t, `{"message":"done"}`, buf.String())
}
