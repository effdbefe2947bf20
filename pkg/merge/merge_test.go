package merge

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxongrid/arraygen/pkg/script"
)

func testConfig(outputDir string) Config {
	return Config{
		Name:          "run42",
		OutputDir:     outputDir,
		PrepPath:      "/meta/prep.tsv",
		Environment:   "source activate classify-env",
		Memory:        "48g",
		Walltime:      "4:00:00",
		ContactEmail:  "support@example.org",
		PartitionKeys: []string{"phylum", "genus", "species", "free", "none"},
		ArchiveGlob:   "*.sam.xz",
		FinishCommand: "arraygen validate --name run42",
	}
}

func TestBuildPlan(t *testing.T) {
	t.Run("one task per key plus secondary", func(t *testing.T) {
		tasks, err := BuildPlan([]string{"phylum", "genus"}, "per-gene")
		require.NoError(t, err)
		require.Len(t, tasks, 3)

		assert.Equal(t, "phylum", tasks[0].PartitionKey)
		assert.Equal(t, "*.woltka-taxa/phylum.biom", tasks[0].Glob)
		assert.Equal(t, "per-gene", tasks[2].PartitionKey)
		assert.Equal(t, "*.woltka-per-gene", tasks[2].Glob)
	})

	t.Run("six keys without secondary", func(t *testing.T) {
		keys := []string{"phylum", "class", "order", "family", "genus", "species"}
		tasks, err := BuildPlan(keys, "")
		require.NoError(t, err)
		assert.Len(t, tasks, 6)
	})

	t.Run("at task limit", func(t *testing.T) {
		keys := make([]string, 32)
		for i := range keys {
			keys[i] = fmt.Sprintf("rank%d", i)
		}
		_, err := BuildPlan(keys, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfig)
		assert.Contains(t, err.Error(), "32 merge tasks")
	})

	t.Run("just under the limit", func(t *testing.T) {
		keys := make([]string, 31)
		for i := range keys {
			keys[i] = fmt.Sprintf("rank%d", i)
		}
		tasks, err := BuildPlan(keys, "")
		require.NoError(t, err)
		assert.Len(t, tasks, 31)
	})

	t.Run("secondary counts toward the limit", func(t *testing.T) {
		keys := make([]string, 31)
		for i := range keys {
			keys[i] = fmt.Sprintf("rank%d", i)
		}
		_, err := BuildPlan(keys, "per-gene")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfig)
	})

	t.Run("empty plan rejected", func(t *testing.T) {
		_, err := BuildPlan(nil, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfig)
	})
}

func TestRenameAssignment(t *testing.T) {
	countRenames := func(tasks []Task) (int, string) {
		n, key := 0, ""
		for _, task := range tasks {
			if task.RenameOutput {
				n++
				key = task.PartitionKey
			}
		}
		return n, key
	}

	t.Run("secondary key receives the flag", func(t *testing.T) {
		tasks, err := BuildPlan([]string{"phylum", "genus", "species"}, "per-gene")
		require.NoError(t, err)

		n, key := countRenames(tasks)
		assert.Equal(t, 1, n)
		assert.Equal(t, "per-gene", key)
	})

	t.Run("last ordinary key without secondary", func(t *testing.T) {
		tasks, err := BuildPlan([]string{"phylum", "genus", "none"}, "")
		require.NoError(t, err)

		n, key := countRenames(tasks)
		assert.Equal(t, 1, n)
		assert.Equal(t, "none", key)
	})
}

func TestTaskCommand(t *testing.T) {
	task := Task{PartitionKey: "genus", Glob: "*.woltka-taxa/genus.biom"}
	cmd := task.Command("/meta/prep.tsv", "/scratch/out")
	assert.Equal(t, `woltka_merge --prep /meta/prep.tsv --base /scratch/out --name genus --glob "*.woltka-taxa/genus.biom"`, cmd)

	task.RenameOutput = true
	assert.True(t, strings.HasSuffix(task.Command("/meta/prep.tsv", "/scratch/out"), " --rename"))
}

func TestBuildScript(t *testing.T) {
	cfg := testConfig("/scratch/out")
	tasks, err := BuildPlan(cfg.PartitionKeys, "")
	require.NoError(t, err)

	s, err := BuildScript(cfg, tasks)
	require.NoError(t, err)

	// Parallelism directive equals the task count.
	dirs := s.Directives()
	assert.Equal(t, "nodes=1:ppn=5", dirs[2].Text)
	assert.Equal(t, "merge-run42", dirs[1].Text)

	// Every merge launches in the background, then a single barrier.
	var backgrounds, barriers int
	barrierIdx, lastBackgroundIdx := -1, -1
	for i, st := range s.Statements() {
		switch st.Kind {
		case script.KindBackground:
			backgrounds++
			lastBackgroundIdx = i
		case script.KindBarrier:
			barriers++
			barrierIdx = i
		}
	}
	assert.Equal(t, 5, backgrounds)
	assert.Equal(t, 1, barriers)
	assert.Greater(t, barrierIdx, lastBackgroundIdx, "barrier must follow all merge launches")

	// Packaging and notification follow the barrier.
	text := s.Render()
	assert.Contains(t, text, "tar -cvf alignment.tar *.sam.xz")
	assert.Contains(t, text, "arraygen validate --name run42")
	assert.Less(t, strings.Index(text, "wait"), strings.Index(text, "tar -cvf"))
}

func TestBuild_WritesScript(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.SecondaryKey = "per-gene"

	path, tasks, err := Build(cfg)
	require.NoError(t, err)
	assert.Len(t, tasks, 6)

	text, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(text), "#!/bin/bash\n"))
	assert.Contains(t, string(text), "--name per-gene --glob \"*.woltka-per-gene\" --rename &")
}
