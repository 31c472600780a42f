package docsystem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
)

func nodePaths(nodes []docsystem.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Path)
	}
	return out
}

func seedSearchTree(t *testing.T, f *fixture) {
	t.Helper()
	f.mkdir(t, "/Engineering", "Reports")
	f.upload(t, f.member, "/Engineering/Reports", "q1-report.pdf", "1234567890")
	f.upload(t, f.admin, "/Engineering/Reports", "summary.txt", "12345")
	f.upload(t, f.member, "/Engineering", "REPORT-draft.docx", "1")
	f.mkdir(t, "/", "HR")
	f.upload(t, f.admin, "/HR", "report-salaries.xlsx", "secret")
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	seedSearchTree(t, f)
	ctx := context.Background()

	results, err := f.search.Search(ctx, f.admin, &docsystem.SearchOptions{Query: "report"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"/Engineering/Reports",
		"/Engineering/Reports/q1-report.pdf",
		"/Engineering/REPORT-draft.docx",
		"/HR/report-salaries.xlsx",
	}, nodePaths(results))

	t.Run("scoped to root path", func(t *testing.T) {
		results, err := f.search.Search(ctx, f.admin, &docsystem.SearchOptions{Query: "report", RootPath: "/Engineering/Reports"})
		require.NoError(t, err)
		assert.Equal(t, []string{"/Engineering/Reports/q1-report.pdf"}, nodePaths(results), "the scan root is not a result")
	})

	t.Run("members only see their teams", func(t *testing.T) {
		results, err := f.search.Search(ctx, f.member, &docsystem.SearchOptions{Query: "REPORT"})
		require.NoError(t, err)
		assert.NotContains(t, nodePaths(results), "/HR/report-salaries.xlsx")
		assert.Len(t, results, 3)
	})

	t.Run("limit", func(t *testing.T) {
		results, err := f.search.Search(ctx, f.admin, &docsystem.SearchOptions{Query: "report", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("owner email resolved", func(t *testing.T) {
		results, err := f.search.Search(ctx, f.admin, &docsystem.SearchOptions{Query: "q1-"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "member@example.com", results[0].OwnerEmail)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := f.search.Search(ctx, f.admin, &docsystem.SearchOptions{Query: "   "})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = f.search.Search(ctx, f.admin, &docsystem.SearchOptions{Query: "x", Limit: docsystem.MaxSearchLimit + 1})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = f.search.Search(ctx, f.member, &docsystem.SearchOptions{Query: "x", RootPath: "/HR"})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = f.search.Search(ctx, f.admin, &docsystem.SearchOptions{Query: "x", RootPath: "/missing"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestFilter(t *testing.T) {
	f := newFixture(t)
	seedSearchTree(t, f)
	ctx := context.Background()

	boolPtr := func(b bool) *bool { return &b }
	int64Ptr := func(n int64) *int64 { return &n }
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name     string
		criteria docsystem.FilterCriteria
		want     []string
	}{
		{
			name:     "folders only",
			criteria: docsystem.FilterCriteria{IsFolder: boolPtr(true)},
			want:     []string{"/Engineering", "/Engineering/Reports", "/HR"},
		},
		{
			name:     "size bounds are inclusive",
			criteria: docsystem.FilterCriteria{IsFolder: boolPtr(false), MinSize: int64Ptr(5), MaxSize: int64Ptr(10)},
			want:     []string{"/Engineering/Reports/q1-report.pdf", "/Engineering/Reports/summary.txt", "/HR/report-salaries.xlsx"},
		},
		{
			name:     "owner email",
			criteria: docsystem.FilterCriteria{OwnerEmail: strPtr("MEMBER@example.com")},
			want:     []string{"/Engineering/Reports/q1-report.pdf", "/Engineering/REPORT-draft.docx"},
		},
		{
			name:     "unknown owner matches nothing",
			criteria: docsystem.FilterCriteria{OwnerEmail: strPtr("ghost@example.com")},
			want:     []string{},
		},
		{
			name:     "scoped root",
			criteria: docsystem.FilterCriteria{RootPath: "/HR", IsFolder: boolPtr(false)},
			want:     []string{"/HR/report-salaries.xlsx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			criteria := tt.criteria
			results, err := f.search.Filter(ctx, f.admin, &criteria)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, nodePaths(results))
		})
	}

	t.Run("created bounds", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		results, err := f.search.Filter(ctx, f.admin, &docsystem.FilterCriteria{CreatedAfter: &future})
		require.NoError(t, err)
		assert.Empty(t, results)

		past := time.Now().Add(-time.Hour)
		results, err = f.search.Filter(ctx, f.admin, &docsystem.FilterCriteria{CreatedAfter: &past, CreatedBefore: &future})
		require.NoError(t, err)
		assert.Len(t, results, 7)
	})

	t.Run("member filtered at root", func(t *testing.T) {
		results, err := f.search.Filter(ctx, f.member, &docsystem.FilterCriteria{IsFolder: boolPtr(false)})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			"/Engineering/Reports/q1-report.pdf",
			"/Engineering/Reports/summary.txt",
			"/Engineering/REPORT-draft.docx",
		}, nodePaths(results))
	})

	t.Run("contradictory bounds", func(t *testing.T) {
		_, err := f.search.Filter(ctx, f.admin, &docsystem.FilterCriteria{MinSize: int64Ptr(10), MaxSize: int64Ptr(1)})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
