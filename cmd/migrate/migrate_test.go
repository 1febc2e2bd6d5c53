package migrate

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSteps(t *testing.T) {
	n, err := parseSteps(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = parseSteps([]string{"3"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = parseSteps([]string{"-1"})
	assert.Error(t, err)
	_, err = parseSteps([]string{"x"})
	assert.Error(t, err)
}

func TestCloneURLWithQuery(t *testing.T) {
	u, err := url.Parse("postgres://user@localhost:5432/brc20?sslmode=disable")
	require.NoError(t, err)

	clone := cloneURLWithQuery(u, url.Values{"x-migrations-table": {brc20MigrationTable}})
	assert.Equal(t, "disable", clone.Query().Get("sslmode"))
	assert.Equal(t, brc20MigrationTable, clone.Query().Get("x-migrations-table"))
	assert.Empty(t, u.Query().Get("x-migrations-table"))
}
