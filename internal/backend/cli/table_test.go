package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable(t *testing.T) {
	t.Run("slices rows at header column offsets", func(t *testing.T) {
		out := "CONTAINER ID   IMAGE   NAMES\n" +
			"abc123def456   nginx   web\n" +
			"fed654cba321   redis   cache\n"

		table := parseTable(out)
		assert.Equal(t, []string{"CONTAINER ID", "IMAGE", "NAMES"}, table.Columns)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, map[string]string{
			"CONTAINER ID": "abc123def456",
			"IMAGE":        "nginx",
			"NAMES":        "web",
		}, table.Rows[0])
		assert.Equal(t, "cache", table.Rows[1]["NAMES"])
	})

	t.Run("header field may contain single spaces", func(t *testing.T) {
		table := parseTable("CONTAINER ID  STATUS\n")
		assert.Equal(t, []string{"CONTAINER ID", "STATUS"}, table.Columns)
		assert.Empty(t, table.Rows)
	})

	t.Run("short lines leave trailing cells empty", func(t *testing.T) {
		out := "CONTAINER ID   NAMES\n" +
			"abc123def456\n"

		table := parseTable(out)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "abc123def456", table.Rows[0]["CONTAINER ID"])
		assert.Equal(t, "", table.Rows[0]["NAMES"])
	})

	t.Run("empty output yields an empty table", func(t *testing.T) {
		table := parseTable("")
		assert.Empty(t, table.Columns)
		assert.Empty(t, table.Rows)
	})
}

func TestPS(t *testing.T) {
	t.Run("parses the listing", func(t *testing.T) {
		exec := &scriptedExecutor{results: []Result{{
			Stdout: "CONTAINER ID   IMAGE\nabc123def456   nginx\n",
		}}}
		rt, err := NewWithExecutor(testConfig(), exec)
		require.NoError(t, err)

		table, err := rt.PS(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"docker", "ps"}, exec.calls[0])
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "nginx", table.Rows[0]["IMAGE"])
	})

	t.Run("not-found stderr yields an empty listing", func(t *testing.T) {
		exec := &scriptedExecutor{results: []Result{{
			Stderr:   "Error: No such container: gone\n",
			ExitCode: 1,
		}}}
		rt, err := NewWithExecutor(testConfig(), exec)
		require.NoError(t, err)

		table, err := rt.PS(context.Background())
		require.NoError(t, err)
		assert.Empty(t, table.Rows)
	})

	t.Run("other failures propagate with diagnostics", func(t *testing.T) {
		exec := &scriptedExecutor{results: []Result{{
			Stderr:   "Cannot connect to the Docker daemon\n",
			ExitCode: 1,
		}}}
		rt, err := NewWithExecutor(testConfig(), exec)
		require.NoError(t, err)

		_, err = rt.PS(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot connect")
	})
}
