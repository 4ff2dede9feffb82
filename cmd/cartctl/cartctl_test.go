package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercart/internal/state"
)

const testMenu = `items:
  - itemId: beef-noodle
    name: Beef Noodle Soup
    price: 100
    category: noodles
  - id: bubble-tea
    name: Bubble Tea
    price: 60
    category: drinks
  - id: oyster-omelette
    name: Oyster Omelette
    price: 80
    available: false
`

func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "menu.yaml"), []byte(testMenu), 0o644))
	cfg := "cart_id: table-7\nbackend: file\ndata_dir: " + filepath.Join(dir, "carts") +
		"\nmenu_path: " + filepath.Join(dir, "menu.yaml") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cartctl.yaml"), []byte(cfg), 0o644))
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "cartctl.yaml")}, args...))
	err := cmd.Execute()
	a.teardown()
	return out.String(), err
}

func TestCLI_AddAndShow(t *testing.T) {
	dir := setupDir(t)

	_, err := run(t, dir, "add", "beef-noodle", "-q", "2")
	require.NoError(t, err)
	_, err = run(t, dir, "add", "beef-noodle")
	require.NoError(t, err)

	out, err := run(t, dir, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Beef Noodle Soup")
	assert.Contains(t, out, "NT$ 300.00")
	assert.Contains(t, out, "NT$ 345.00")
	assert.Equal(t, 1, strings.Count(out, "Beef Noodle Soup"), "same item and note should merge")

	_, err = os.Stat(filepath.Join(dir, "carts", "table-7", "cart.json"))
	assert.NoError(t, err)
}

func TestCLI_AddRejectsUnknownAndUnavailable(t *testing.T) {
	dir := setupDir(t)

	_, err := run(t, dir, "add", "nope")
	assert.Error(t, err)
	_, err = run(t, dir, "add", "oyster-omelette")
	assert.Error(t, err)

	out, err := run(t, dir, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "is empty")
}

func TestCLI_MenuListsAvailable(t *testing.T) {
	dir := setupDir(t)

	out, err := run(t, dir, "menu")
	require.NoError(t, err)
	assert.Contains(t, out, "bubble-tea")
	assert.NotContains(t, out, "oyster-omelette")

	out, err = run(t, dir, "menu", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Oyster Omelette (unavailable)")
}

func TestCLI_AuditAndClear(t *testing.T) {
	dir := setupDir(t)

	_, err := run(t, dir, "add", "bubble-tea", "-q", "3", "-n", "less ice")
	require.NoError(t, err)

	out, err := run(t, dir, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "cart table-7: ok lines=1 dropped=0")

	out, err = run(t, dir, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "is empty")
}

func TestCLI_SeedIsReproducible(t *testing.T) {
	a, b := setupDir(t), setupDir(t)

	outA, err := run(t, a, "seed", "--count", "25", "--seed", "42")
	require.NoError(t, err)
	outB, err := run(t, b, "seed", "--count", "25", "--seed", "42")
	require.NoError(t, err)

	total := func(out string) string {
		for _, line := range strings.Split(out, "\n") {
			if strings.Contains(line, "total") {
				return strings.TrimSpace(line)
			}
		}
		return ""
	}
	require.NotEmpty(t, total(outA))
	assert.Equal(t, total(outA), total(outB))
	assert.NotContains(t, outA, "Oyster Omelette")
}

func TestCLI_FailedCommandReleasesStorage(t *testing.T) {
	dir := setupDir(t)
	// a regular file where the changelog directory should be makes the
	// command fail after the pebble store has been opened
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg := "cart_id: table-7\nbackend: pebble\ndata_dir: " + filepath.Join(dir, "data") +
		"\nmenu_path: " + filepath.Join(dir, "menu.yaml") +
		"\nchangelog:\n  sink: file\n  dir: " + filepath.Join(blocker, "log") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cartctl.yaml"), []byte(cfg), 0o644))

	_, err := run(t, dir, "show")
	require.Error(t, err)

	ps, err := state.NewPebbleStore(filepath.Join(dir, "data", "pebble"))
	require.NoError(t, err, "pebble should have been closed after the failed command")
	require.NoError(t, ps.Close())
}
