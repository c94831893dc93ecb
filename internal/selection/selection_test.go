package selection

import (
	"testing"

	"github.com/soyeahso/somc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog map[string]domain.Agent

func (f fakeCatalog) Lookup(id string) (domain.Agent, bool) {
	a, ok := f[id]
	return a, ok
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"1": {ID: "1", Name: "Anna", Expertise: domain.ExpertiseDemografie},
		"2": {ID: "2", Name: "Bram", Expertise: domain.ExpertiseEconomie},
		"3": {ID: "3", Name: "Cees", Expertise: domain.ExpertiseWonen},
	}
}

func TestToggle_AddRemove(t *testing.T) {
	s := New(testCatalog())

	on, err := s.Toggle("2")
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, s.Contains("2"))
	assert.Equal(t, 1, s.Len())

	on, err = s.Toggle("2")
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, s.Contains("2"))
	assert.Equal(t, 0, s.Len())
}

func TestToggle_TwiceRestoresOriginal(t *testing.T) {
	s := New(testCatalog())
	_, _ = s.Toggle("1")
	_, _ = s.Toggle("3")
	before := s.IDs()

	for _, id := range []string{"1", "2", "3"} {
		_, err := s.Toggle(id)
		require.NoError(t, err)
		_, err = s.Toggle(id)
		require.NoError(t, err)
		assert.Equal(t, before, s.IDs(), "after double toggle of %s", id)
	}
}

func TestToggle_UnknownAgent(t *testing.T) {
	s := New(testCatalog())
	_, _ = s.Toggle("1")

	on, err := s.Toggle("99")
	assert.ErrorIs(t, err, ErrUnknownAgent)
	assert.False(t, on)
	assert.Equal(t, []string{"1"}, s.IDs())
}

func TestSnapshot_InsertionOrder(t *testing.T) {
	s := New(testCatalog())
	for _, id := range []string{"3", "1", "2"} {
		_, err := s.Toggle(id)
		require.NoError(t, err)
	}
	_, _ = s.Toggle("1")

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "Cees", snap[0].Name)
	assert.Equal(t, "Bram", snap[1].Name)
}

func TestSnapshot_IsDetached(t *testing.T) {
	s := New(testCatalog())
	_, _ = s.Toggle("1")
	snap := s.Snapshot()

	_, _ = s.Toggle("2")
	_, _ = s.Toggle("1")

	require.Len(t, snap, 1)
	assert.Equal(t, "1", snap[0].ID)
	ids := s.IDs()
	ids[0] = "mutated"
	assert.Equal(t, []string{"2"}, s.IDs())
}

func TestSnapshot_Empty(t *testing.T) {
	s := New(fakeCatalog{})
	assert.Empty(t, s.Snapshot())
	assert.NotNil(t, s.Snapshot())
}
