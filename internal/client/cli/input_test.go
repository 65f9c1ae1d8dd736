package cli

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetMultiline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "double enter", input: "a\nb\n\n\n", want: "a\nb"},
		{name: "crlf", input: "a\r\nb\r\n\r\n", want: "a\nb"},
		{name: "eof without blank line", input: "a\nb", want: "a\nb"},
		{name: "immediate blank line", input: "\nignored\n", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetMultiline(rdr(tt.input), "Enter text", &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, Confirm(rdr("y\n"), "Sure?", &out))
	assert.True(t, Confirm(rdr("YES\n"), "Sure?", &out))
	assert.False(t, Confirm(rdr("n\n"), "Sure?", &out))
	assert.False(t, Confirm(rdr("\n"), "Sure?", &out))
	assert.False(t, Confirm(rdr(""), "Sure?", &out))
	assert.Contains(t, out.String(), "Sure? [y/N]")
}

// Smallest valid PNG header, enough for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestReadImageFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("by extension", func(t *testing.T) {
		path := filepath.Join(dir, "photo.JPG")
		require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o600))
		mediaType, data, err := readImageFile(path)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", mediaType)
		assert.Equal(t, []byte("jpeg"), data)
	})

	t.Run("by content", func(t *testing.T) {
		path := filepath.Join(dir, "photo.bin1")
		require.NoError(t, os.WriteFile(path, pngBytes, 0o600))
		mediaType, _, err := readImageFile(path)
		require.NoError(t, err)
		assert.Equal(t, "image/png", mediaType)
	})

	t.Run("not an image", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))
		_, _, err := readImageFile(path)
		require.ErrorIs(t, err, errNotImage)
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := readImageFile(filepath.Join(dir, "absent.png"))
		require.Error(t, err)
	})
}

func TestInteractive_UsesTerminalSeam(t *testing.T) {
	orig := isTerminal
	t.Cleanup(func() { isTerminal = orig })

	isTerminal = func(int) bool { return true }
	assert.True(t, interactive())
	isTerminal = func(int) bool { return false }
	assert.False(t, interactive())
}
