package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"":                       "untitled",
		"créer un compte":        "Créer un compte",
		"step 1: login / signup": "Step 1- login signup",
		"  trailing dots...  ":   "Trailing dots",
		"???":                    "untitled",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}

	long := strings.Repeat("é", 150) // 300 octets
	got := SanitizeFilename(long)
	assert.LessOrEqual(t, len(got), maxNameLen)
	assert.True(t, utf8.ValidString(got))
}

func TestSaveAtomicAddsSuffix(t *testing.T) {
	dir := t.TempDir()

	p1, err := SaveAtomic(dir, "sheet", "txt", []byte("one"), false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sheet.txt"), p1)

	p2, err := SaveAtomic(dir, "sheet", ".txt", []byte("two"), false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sheet_1.txt"), p2)

	p3, err := SaveAtomic(dir, "sheet", "md", []byte("three"), true)
	require.NoError(t, err)
	p4, err := SaveAtomic(dir, "sheet", ".md", []byte("four"), true)
	require.NoError(t, err)
	assert.Equal(t, p3, p4)

	b, err := os.ReadFile(p4)
	require.NoError(t, err)
	assert.Equal(t, "four", string(b))

	_, err = SaveAtomic(dir, "", ".md", nil, true)
	assert.Error(t, err)
}

func TestWriteFileAtomicCreatesParents(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b", "file.yaml")
	require.NoError(t, WriteFileAtomic(dest, []byte("x: 1\n"), 0o644))

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "x: 1\n", string(b))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file left behind")
}
