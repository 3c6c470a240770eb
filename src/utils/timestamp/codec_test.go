package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCustom(t *testing.T) {
	want := time.Date(2024, 1, 1, 12, 0, 0, 123450000, time.UTC)

	tests := []struct {
		name  string
		input string
		ok    bool
		want  time.Time
	}{
		{"five digit fraction", "01.01.2024 12:00:00.12345", true, want},
		{"trailing Z", "01.01.2024 12:00:00.12345Z", true, want},
		{"six digit fraction", "01.01.2024 12:00:00.123450", true, want},
		{"single digit day and month", "1.1.2024 12:00:00.12345", true, want},
		{"surrounding space", "  01.01.2024 12:00:00.12345Z ", true, want},
		{"empty", "", false, time.Time{}},
		{"iso instead", "2024-01-01T12:00:00", false, time.Time{}},
		{"bad hour", "01.01.2024 25:00:00.00000", false, time.Time{}},
		{"garbage", "not-a-date", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCustom(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}

func TestParseCustomZSuffixTolerance(t *testing.T) {
	a, okA := ParseDateTime("01.01.2024", "12:00:00.12345Z")
	b, okB := ParseDateTime("01.01.2024", "12:00:00.12345")
	require.True(t, okA)
	require.True(t, okB)
	assert.True(t, a.Equal(b))
}

func TestParseISO(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 100000000, time.UTC)

	tests := []struct {
		name  string
		input string
		ok    bool
		want  time.Time
	}{
		{"offset zero", "2024-01-01T12:00:00.100+00:00", true, base},
		{"zulu", "2024-01-01T12:00:00.100Z", true, base},
		{"positive offset converts to utc", "2024-01-01T15:00:00.100+03:00", true, base},
		{"compact offset", "2024-01-01T15:00:00.100+0300", true, base},
		{"naive treated as utc", "2024-01-01T12:00:00.100", true, base},
		{"space separator", "2024-01-01 12:00:00.100", true, base},
		{"microseconds", "2024-01-01T12:00:00.100000+00:00", true, base},
		{"date only", "2024-01-01", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"empty", "", false, time.Time{}},
		{"custom format rejected", "01.01.2024 12:00:00.10000", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseISO(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}

func TestFormatObjectID(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 3, 987654321, time.UTC)
	assert.Equal(t, "09.03.2024 07:05:03.98765Z", FormatObjectID(ts))

	epoch := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	label := FormatObjectID(FromEpochMillis(epoch.UnixMilli()))
	assert.Equal(t, "01.01.2024 12:00:00.00000Z", label)

	back, ok := ParseCustom(label)
	require.True(t, ok)
	assert.True(t, epoch.Equal(back))
}

func TestFormatNaive(t *testing.T) {
	assert.Equal(t, "2024-01-01 12:00:00", FormatNaive(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-01 12:00:00.500000", FormatNaive(time.Date(2024, 1, 1, 12, 0, 0, 500000000, time.UTC)))
}

func TestDeltaMillisTruncatesTowardZero(t *testing.T) {
	a := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b := a.Add(1500 * time.Microsecond)
	assert.Equal(t, int64(-1), DeltaMillis(a, b))
	assert.Equal(t, int64(1), DeltaMillis(b, a))
}
