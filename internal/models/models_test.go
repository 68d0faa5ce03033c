package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListColumn(t *testing.T) {
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var l StringList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)

	assert.Error(t, l.Scan(42))
}

func TestJournalSettingsColumn(t *testing.T) {
	in := JournalSettings{Currency: "EUR", InitialCapital: 10000, RiskPercent: 1.5}
	v, err := in.Value()
	require.NoError(t, err)

	var out JournalSettings
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
}

func TestTradeCloneIsDeep(t *testing.T) {
	exit := 12.5
	exitDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tr := Trade{ExitPrice: &exit, ExitDate: &exitDate, Tags: StringList{"breakout"}}

	c := tr.Clone()
	*c.ExitPrice = 99
	c.Tags[0] = "changed"

	assert.Equal(t, 12.5, *tr.ExitPrice)
	assert.Equal(t, "breakout", tr.Tags[0])
	assert.True(t, c.IsClosed())
	assert.Equal(t, exitDate, c.ClosedAt())
}
