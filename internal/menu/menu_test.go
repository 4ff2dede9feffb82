package menu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_PrefersItemID(t *testing.T) {
	it, err := Normalize(Record{ItemID: "m-1", ID: "legacy", Name: "Beef Noodles", Price: 180, Category: "mains"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", it.ID)
	assert.Equal(t, "180", it.Price.String())
	assert.True(t, it.Available, "missing available flag means orderable")
}

func TestNormalize_FallsBackToID(t *testing.T) {
	off := false
	it, err := Normalize(Record{ID: "7", Name: "Tea", Price: 35.5, Available: &off})
	require.NoError(t, err)
	assert.Equal(t, "7", it.ID)
	assert.Equal(t, "35.5", it.Price.String())
	assert.False(t, it.Available)
}

func TestNormalize_MissingID(t *testing.T) {
	_, err := Normalize(Record{Name: "Ghost"})
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("want ErrMissingID, got %v", err)
	}
}

const sampleMenu = `
items:
  - itemId: "dumpling"
    name: Pork Dumplings
    price: 120
    category: appetizers
  - id: "rice"
    name: Braised Pork Rice
    price: 75
    category: mains
    available: false
  - itemId: "dumpling"
    name: Pork Dumplings (10)
    price: 150
    category: appetizers
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(sampleMenu))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	d, ok := c.Get("dumpling")
	require.True(t, ok)
	assert.Equal(t, "Pork Dumplings (10)", d.Name, "duplicate id replaces earlier entry")

	avail := c.Available()
	require.Len(t, avail, 1)
	assert.Equal(t, "dumpling", avail[0].ID)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLoadCatalog_FileAndErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleMenu), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, c.All(), 2)

	_, err = LoadCatalog(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("items:\n  - name: NoID\n    price: 1\n"), 0o644))
	_, err = LoadCatalog(bad)
	assert.ErrorIs(t, err, ErrMissingID)
}
