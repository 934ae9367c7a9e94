package fixtures

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/nstlib/nst/node"
	"github.com/nstlib/nst/pathcodec"
	"github.com/nstlib/nst/query"
	"github.com/nstlib/nst/store"
	"github.com/nstlib/nst/treeengine"
)

func openScenarioStore(t *testing.T) (*store.Store, *treeengine.Engine, node.Columns) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.EnsureSchema(`
		CREATE TABLE IF NOT EXISTS nodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT UNIQUE NOT NULL,
			lft REAL NOT NULL,
			rgt REAL NOT NULL,
			lvl INTEGER NOT NULL
		)
	`))

	cols := node.Columns{
		ColumnSet: query.ColumnSet{Table: "nodes", PK: "id", Path: "path", Left: "lft", Right: "rgt", Level: "lvl"},
	}
	return s, treeengine.New(s, cols.ColumnSet, 0), cols
}

func loadAndRun(t *testing.T, name string) (*Scenario, *Result) {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)

	s, engine, cols := openScenarioStore(t)
	result, err := Run(context.Background(), s, engine, cols, scenario)
	require.NoError(t, err)
	return scenario, result
}

type aliasPath struct {
	Alias string `json:"alias"`
	Path  string `json:"path"`
}

type goldenSnapshot struct {
	Scenario   string      `json:"scenario"`
	AliasPaths []aliasPath `json:"alias_paths"`
	QueryPaths []string    `json:"query_paths,omitempty"`
}

func assertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	aliases := make([]aliasPath, 0, len(result.AliasPaths))
	for alias, path := range result.AliasPaths {
		aliases = append(aliases, aliasPath{Alias: alias, Path: path})
	}
	sort.Slice(aliases, func(i, j int) bool { return aliases[i].Alias < aliases[j].Alias })

	snapshot := goldenSnapshot{
		Scenario:   scenario.Name,
		AliasPaths: aliases,
		QueryPaths: result.QueryPaths,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
}

func TestChildrenOrder(t *testing.T) {
	scenario, result := loadAndRun(t, "children_order")
	require.Equal(t, scenario.ExpectPaths, result.QueryPaths)
	require.Equal(t, "1", result.AliasPaths["A"])
	require.Equal(t, "2", result.AliasPaths["B"])
	require.Equal(t, "1.1", result.AliasPaths["c1"])
	require.Equal(t, "1.2", result.AliasPaths["c2"])
	require.Equal(t, "1.3", result.AliasPaths["c3"])
	assertGolden(t, scenario, result)
}

func TestMoveBeforeReordersSiblings(t *testing.T) {
	scenario, result := loadAndRun(t, "move_before_reorders_siblings")
	require.Equal(t, scenario.ExpectPaths, result.QueryPaths)
	// c3 was last; moved before c1 it now holds the earliest path, and
	// c1/c2 each shift one position later.
	require.Equal(t, "1.1", result.AliasPaths["c3"])
	require.Equal(t, "1.2", result.AliasPaths["c1"])
	require.Equal(t, "1.3", result.AliasPaths["c2"])
	assertGolden(t, scenario, result)
}

func TestInsertBeforeShiftsSibling(t *testing.T) {
	scenario, result := loadAndRun(t, "insert_before_shifts_sibling")
	require.Equal(t, scenario.ExpectPaths, result.QueryPaths)
	require.Equal(t, "1", result.AliasPaths["A"])
	require.Equal(t, "2", result.AliasPaths["X"])
	require.Equal(t, "3", result.AliasPaths["B"])
	assertGolden(t, scenario, result)
}

func TestDeleteMiddleSiblingClosesGap(t *testing.T) {
	scenario, result := loadAndRun(t, "delete_middle_sibling_closes_gap")
	require.Equal(t, scenario.ExpectPaths, result.QueryPaths)
	require.Len(t, result.QueryPaths, *scenario.ExpectCount)
	require.Equal(t, "1.1", result.AliasPaths["c1"])
	require.Equal(t, "1.2", result.AliasPaths["c3"])
	_, deleted := result.AliasPaths["c2"]
	require.False(t, deleted)
	assertGolden(t, scenario, result)
}

func TestMoveIntoRootChangesDepth(t *testing.T) {
	scenario, result := loadAndRun(t, "move_into_root_changes_depth")
	require.Equal(t, "1.2", result.AliasPaths["L5"])

	l10Path := result.AliasPaths["L10"]
	level, err := pathcodec.LevelOfPath(l10Path)
	require.NoError(t, err)
	require.Equal(t, 7, level)

	ancestors, err := pathcodec.AncestorPaths(l10Path)
	require.NoError(t, err)
	require.Len(t, ancestors, 6)

	assertGolden(t, scenario, result)
}
