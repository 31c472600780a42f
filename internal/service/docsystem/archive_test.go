package docsystem

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
)

func buildZip(t *testing.T, files map[string]string, dirs ...string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, d := range dirs {
		_, err := zw.Create(d + "/")
		require.NoError(t, err)
	}
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestExpandArchive(t *testing.T) {
	zr := buildZip(t, map[string]string{
		"project/src/main.go":         "package main",
		"project/docs/guide.md":       "# guide",
		"project/.DS_Store":           "junk",
		"__MACOSX/project/._guide.md": "junk",
	}, "project", "project/src")

	entries, closeAll, err := ExpandArchive(zr, zr.Size(), 1<<20)
	require.NoError(t, err)
	defer closeAll()

	var rels []string
	for _, e := range entries {
		rels = append(rels, e.RelativePath)
	}
	assert.ElementsMatch(t, []string{"project/src/main.go", "project/docs/guide.md"}, rels)

	t.Run("feeds folder upload", func(t *testing.T) {
		f := newFixture(t)
		result, err := f.tree.UploadFolderStructure(context.Background(), f.member, &docsysSvc.UploadFolderStructureRequest{
			ParentPath: "/Engineering",
			Entries:    entries,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.CreatedFiles)
		assert.Equal(t, "package main", f.read(t, "/Engineering/project/src/main.go"))
	})
}

func TestExpandArchiveRejectsGarbage(t *testing.T) {
	r := bytes.NewReader([]byte("definitely not a zip"))
	_, _, err := ExpandArchive(r, r.Size(), 1<<20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestExpandArchiveLimits(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"entry too large", map[string]string{"big.bin": strings.Repeat("0", 2000)}},
		{"total too large", map[string]string{"a.bin": strings.Repeat("a", 600), "b.bin": strings.Repeat("b", 600)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zr := buildZip(t, tt.files)
			_, _, err := ExpandArchive(zr, zr.Size(), 1000)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	t.Run("within budget", func(t *testing.T) {
		zr := buildZip(t, map[string]string{"a.bin": strings.Repeat("a", 500), "b.bin": strings.Repeat("b", 500)})
		entries, closeAll, err := ExpandArchive(zr, zr.Size(), 1000)
		require.NoError(t, err)
		defer closeAll()
		assert.Len(t, entries, 2)
	})

	t.Run("entry larger than declared", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.CreateRaw(&zip.FileHeader{
			Name:               "liar.txt",
			Method:             zip.Store,
			CompressedSize64:   10,
			UncompressedSize64: 3,
		})
		require.NoError(t, err)
		_, err = w.Write([]byte("0123456789"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		zr := bytes.NewReader(buf.Bytes())
		entries, closeAll, err := ExpandArchive(zr, zr.Size(), 1000)
		require.NoError(t, err)
		defer closeAll()
		require.Len(t, entries, 1)

		data, err := io.ReadAll(entries[0].Content)
		require.Error(t, err)
		assert.LessOrEqual(t, len(data), 3)
	})
}

func TestBoundedReader(t *testing.T) {
	r := newBoundedReader(strings.NewReader("abcdef"), "x.txt", 4)
	data, err := io.ReadAll(r)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.LessOrEqual(t, len(data), 4)

	r = newBoundedReader(strings.NewReader("abcd"), "x.txt", 4)
	data, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))
}
