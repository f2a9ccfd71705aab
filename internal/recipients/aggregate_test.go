package recipients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateValidOnly(t *testing.T) {
	l := NewList(newTestResolver(), Ether)
	a := l.Entries()[0].ID
	b := l.Add()
	c := l.Add()

	require.NoError(t, l.UpdateAddress(a, "alice.eth"))
	require.NoError(t, l.UpdateAmount(a, "1.1"))
	require.NoError(t, l.UpdateAddress(b, "bob.eth"))
	require.NoError(t, l.UpdateAmount(b, "2.2"))
	require.NoError(t, l.UpdateAddress(c, "0xnothex"))
	require.NoError(t, l.UpdateAmount(c, "100"))
	l.Wait()

	total := l.Total()
	assert.Equal(t, 2, total.Count)
	assert.Equal(t, wei("3300000000000000000"), total.Base)
	assert.Equal(t, "3.3000", total.String(DisplayPlaces))
}

func TestAggregateEmpty(t *testing.T) {
	total := Aggregate(nil, Ether)
	assert.True(t, total.IsZero())
	assert.Equal(t, 0, total.Count)
	assert.Equal(t, "0.0000", total.String(DisplayPlaces))
}

func TestAggregateDisplayTruncates(t *testing.T) {
	addr := aliceAddr
	entries := []Entry{{ID: "a", ResolvedAddress: &addr, Amount: wei("123456789000000000"), Valid: true}}

	total := Aggregate(entries, Ether)
	assert.Equal(t, "0.1234", total.String(DisplayPlaces))
}
