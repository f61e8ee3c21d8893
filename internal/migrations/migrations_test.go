package migrations

import (
	"io/fs"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	names, err := fs.Glob(embedded, "sql/*.sql")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"sql/00001_create_products.sql",
		"sql/00002_create_scraping_sessions.sql",
	}, names)

	for _, name := range names {
		body, err := fs.ReadFile(embedded, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestWithSearchPathQuotesSchema(t *testing.T) {
	dsn, err := withSearchPath("postgres://u:p@localhost:5432/gis?sslmode=disable", "Agilite")
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, `"Agilite"`, u.Query().Get("search_path"))
	assert.Equal(t, "disable", u.Query().Get("sslmode"))

	_, err = withSearchPath("://bad", "agilite")
	require.Error(t, err)
}
