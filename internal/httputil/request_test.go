package httputil

import (
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
)

func TestQueryTime(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantFrom  time.Time
		wantUntil time.Time
	}{
		{
			name:      "rfc3339",
			raw:       "2024-03-05T10:20:30+02:00",
			wantFrom:  time.Date(2024, 3, 5, 8, 20, 30, 0, time.UTC),
			wantUntil: time.Date(2024, 3, 5, 8, 20, 30, 0, time.UTC),
		},
		{
			name:      "datetime-local",
			raw:       "2024-03-05T10:20",
			wantFrom:  time.Date(2024, 3, 5, 10, 20, 0, 0, time.UTC),
			wantUntil: time.Date(2024, 3, 5, 10, 20, 0, 0, time.UTC),
		},
		{
			name:      "datetime-local with seconds",
			raw:       "2024-03-05T10:20:30",
			wantFrom:  time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC),
			wantUntil: time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC),
		},
		{
			name:      "bare date",
			raw:       "2024-03-05",
			wantFrom:  time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			wantUntil: time.Date(2024, 3, 5, 23, 59, 59, 999999999, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/?at="+url.QueryEscape(tt.raw), nil)

			from, err := QueryTimePtr(r, "at")
			require.NoError(t, err)
			require.NotNil(t, from)
			assert.True(t, tt.wantFrom.Equal(*from), "got %s", from)

			until, err := QueryTimeUntilPtr(r, "at")
			require.NoError(t, err)
			require.NotNil(t, until)
			assert.True(t, tt.wantUntil.Equal(*until), "got %s", until)
		})
	}

	t.Run("absent", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		got, err := QueryTimeUntilPtr(r, "at")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("garbage", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?at=yesterday", nil)
		_, err := QueryTimePtr(r, "at")
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = QueryTimeUntilPtr(r, "at")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
