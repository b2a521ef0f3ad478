package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeTime(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestParse(t *testing.T) {
	fixed := time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC)
	freezeTime(t, fixed)

	tests := []struct {
		name    string
		spec    string
		want    time.Time
		wantErr string
	}{
		{name: "duration", spec: "1h30m", want: fixed.Add(-90 * time.Minute)},
		{name: "rfc3339", spec: "2025-10-28T08:15:00Z", want: time.Date(2025, 10, 28, 8, 15, 0, 0, time.UTC)},
		{name: "rfc3339 with offset", spec: "2025-10-28T10:15:00+02:00", want: time.Date(2025, 10, 28, 8, 15, 0, 0, time.UTC)},
		{name: "date", spec: "2025-10-01", want: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
		{name: "now", spec: "now", want: fixed},
		{name: "empty", spec: "", wantErr: "empty time specification"},
		{name: "negative duration", spec: "-5m", wantErr: "must be positive"},
		{name: "garbage", spec: "yesterday", wantErr: "invalid time specification: yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.spec)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.UnixMilli(), got)
		})
	}
}

func TestParseRange(t *testing.T) {
	fixed := time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC)
	freezeTime(t, fixed)

	t.Run("both bounds", func(t *testing.T) {
		r, err := ParseRange("2h", "1h")
		require.NoError(t, err)
		assert.Equal(t, fixed.Add(-2*time.Hour).UnixMilli(), r.SinceMs)
		assert.Equal(t, fixed.Add(-time.Hour).UnixMilli(), r.UntilMs)
	})

	t.Run("open bounds", func(t *testing.T) {
		r, err := ParseRange("", "")
		require.NoError(t, err)
		assert.Equal(t, Range{}, r)
	})

	t.Run("since after until", func(t *testing.T) {
		_, err := ParseRange("1h", "2h")
		assert.ErrorContains(t, err, "--since must be before --until")
	})

	t.Run("bad since", func(t *testing.T) {
		_, err := ParseRange("soon", "")
		assert.ErrorContains(t, err, "invalid --since")
	})

	t.Run("bad until", func(t *testing.T) {
		_, err := ParseRange("", "later")
		assert.ErrorContains(t, err, "invalid --until")
	})
}
