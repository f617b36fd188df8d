package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentifiers(t *testing.T) {
	ids := []string{"a", "b", "c"}

	assert.Equal(t, []string{"a", "b", "", ""}, NormalizeIdentifiers(ids, 4))
	assert.Equal(t, []string{"a", "b", "c"}, NormalizeIdentifiers(ids, 3))
	assert.Equal(t, []string{"a"}, NormalizeIdentifiers(ids, 1))
	assert.Equal(t, []string{"", ""}, NormalizeIdentifiers(nil, 2))

	// input must not be aliased
	out := NormalizeIdentifiers(ids, 3)
	out[0] = "x"
	assert.Equal(t, "a", ids[0])
}

func TestDisplayDateFromRecorded(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)

	assert.Equal(t, "05.03.2025", DisplayDateFromRecorded("05-03-2025_141516", now))
	assert.Equal(t, "18.10.2026", DisplayDateFromRecorded("garbage", now))
	assert.Equal(t, "18.10.2026", DisplayDateFromRecorded("", now))
}

func TestParseDisplayDate(t *testing.T) {
	d, ok := ParseDisplayDate("31.12.2025")
	require.True(t, ok)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.December, d.Month())
	assert.Equal(t, 31, d.Day())

	_, ok = ParseDisplayDate("2025-12-31")
	assert.False(t, ok)
}

func TestRepairEvent_RecordedIdentifiers(t *testing.T) {
	e := RepairEvent{DeviceCount: 3, Identifiers: []string{"1", "", "3"}}
	assert.Equal(t, []string{"1", "3"}, e.RecordedIdentifiers())
	assert.Equal(t, 2, e.RecordedCount())

	c := e.Clone()
	c.Identifiers[0] = "changed"
	assert.Equal(t, "1", e.Identifiers[0])
}

func TestKnownSets(t *testing.T) {
	k := DefaultKnownSets()
	assert.True(t, k.HasTechnician("Osman"))
	assert.False(t, k.HasTechnician("osman"))
	assert.True(t, k.HasStatus(k.CompletedStatus))
	assert.True(t, k.HasStatus(k.InProgressStatus))
	assert.True(t, k.HasStatus(k.QualityControlStatus))
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, 20251231, DateKey(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)))
	d, ok := ParseDisplayDate("01.02.2025")
	require.True(t, ok)
	assert.Equal(t, 20250201, DateKey(d))
}
