package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemsFromKeys(t *testing.T) {
	items := ItemsFromKeys("/seqs/runA", "/scratch/out", "sam", []string{"S1_L001", "S2_L001"})

	require.Len(t, items, 2)
	assert.Equal(t, "/seqs/runA/S1_L001", items[0].InputPath)
	assert.Equal(t, "/scratch/out/S1_L001.sam", items[0].OutputPath)
	assert.Equal(t, "/scratch/out/S2_L001.sam", items[1].OutputPath)
}

func TestManifest_WriteAndLoadPreservesOrder(t *testing.T) {
	// Deliberately unsorted: manifest order is load-bearing and must
	// survive the round trip untouched.
	items := []WorkItem{
		{InputPath: "/seqs/zz", OutputPath: "/out/zz.sam"},
		{InputPath: "/seqs/aa", OutputPath: "/out/aa.sam"},
		{InputPath: "/seqs/mm", OutputPath: "/out/mm.sam"},
	}
	path := filepath.Join(t.TempDir(), "run.array-details")

	require.NoError(t, NewManifest(items).Write(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/seqs/zz\t/out/zz.sam\n/seqs/aa\t/out/aa.sam\n/seqs/mm\t/out/mm.sam\n", string(raw))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, items, m.Items())
}

func TestManifest_Line(t *testing.T) {
	m := NewManifest([]WorkItem{
		{InputPath: "a", OutputPath: "a.sam"},
		{InputPath: "b", OutputPath: "b.sam"},
	})

	item, err := m.Line(2)
	require.NoError(t, err)
	assert.Equal(t, "b", item.InputPath)

	_, err = m.Line(0)
	assert.Error(t, err)
	_, err = m.Line(3)
	assert.Error(t, err)
}

func TestLoadManifest_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.array-details")
	require.NoError(t, os.WriteFile(path, []byte("no-tab-here\n"), 0644))

	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tab-separated")
}
