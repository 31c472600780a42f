package pathutil

import (
	"errors"
	"testing"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := MustNormalizer("/")

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "root", raw: "/", want: "/"},
		{name: "simple", raw: "/a/b", want: "/a/b"},
		{name: "redundant separators", raw: "//a///b//", want: "/a/b"},
		{name: "dot segments collapse", raw: "/a/./b/.", want: "/a/b"},
		{name: "only separators", raw: "///", want: "/"},
		{name: "spaces kept", raw: "/My Docs/report 1.pdf", want: "/My Docs/report 1.pdf"},
		{name: "relative", raw: "a/b", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "dotdot", raw: "/a/../b", wantErr: true},
		{name: "trailing dotdot", raw: "/a/..", wantErr: true},
		{name: "null byte", raw: "/a\x00b", wantErr: true},
		{name: "backslash", raw: "/a\\b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidPath))
				var ipe *domain.InvalidPathError
				assert.True(t, errors.As(err, &ipe))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeConfiguredRoot(t *testing.T) {
	n := MustNormalizer("/srv/data/")
	assert.Equal(t, "/srv/data", n.Root())

	got, err := n.Normalize("/srv/data//x")
	require.NoError(t, err)
	assert.Equal(t, "/srv/data/x", got)

	got, err = n.Normalize("/srv/data")
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", got)

	_, err = n.Normalize("/srv/database")
	assert.ErrorIs(t, err, domain.ErrInvalidPath)

	_, err = n.Normalize("/srv")
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}

func TestIsAncestor(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"/", "/a", true},
		{"/", "/", false},
		{"/a", "/a/b", true},
		{"/a", "/a/b/c", true},
		{"/a", "/ab", false},
		{"/a", "/a", false},
		{"/a/b", "/a", false},
		{"/team", "/teamA/x", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+" "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAncestor(tt.a, tt.b))
		})
	}

	assert.True(t, IsWithin("/a", "/a"))
	assert.True(t, IsWithin("/a", "/a/b"))
	assert.False(t, IsWithin("/a", "/b"))
}

func TestParentBaseJoin(t *testing.T) {
	assert.Equal(t, "", Parent("/"))
	assert.Equal(t, "/", Parent("/a"))
	assert.Equal(t, "/a", Parent("/a/b"))

	assert.Equal(t, "", Base("/"))
	assert.Equal(t, "b", Base("/a/b"))

	assert.Equal(t, "/a", Join("/", "a"))
	assert.Equal(t, "/a/b", Join("/a", "b"))
}

func TestRebase(t *testing.T) {
	assert.Equal(t, "/x", Rebase("/a", "/a", "/x"))
	assert.Equal(t, "/x/b/c", Rebase("/a/b/c", "/a", "/x"))
	assert.Equal(t, "/x/y/b", Rebase("/a/b", "/a", "/x/y"))
	assert.Equal(t, "/b", Rebase("/a/b", "/a", "/"))
	assert.Equal(t, "/x/a/b", Rebase("/a/b", "/", "/x"))
}

func TestCommonAncestor(t *testing.T) {
	assert.Equal(t, "/", CommonAncestor("/a/x", "/b/y"))
	assert.Equal(t, "/a", CommonAncestor("/a/x", "/a/y"))
	assert.Equal(t, "/a", CommonAncestor("/a", "/a/y/z"))
	assert.Equal(t, "/a/b", CommonAncestor("/a/b", "/a/b"))
	assert.Equal(t, "/", CommonAncestor("/ab", "/a"))
}

func TestValidateName(t *testing.T) {
	valid := []string{"a", "report.pdf", "My Folder", ".env"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{"", "   ", ".", "..", "a/b", "a\\b", "a\x00"}
	for _, name := range invalid {
		err := ValidateName(name)
		assert.ErrorIs(t, err, domain.ErrValidation, "%q", name)
	}
}

func TestExt(t *testing.T) {
	assert.Equal(t, ".pdf", Ext("a.PDF"))
	assert.Equal(t, ".gz", Ext("a.tar.gz"))
	assert.Equal(t, "", Ext("README"))
	assert.Equal(t, "", Ext(".env"))
}
