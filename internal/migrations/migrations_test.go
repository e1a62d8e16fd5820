package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(embedded, "sql/*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{
		"sql/00001_opportunity.sql",
		"sql/00002_business_profile.sql",
		"sql/00003_research_job.sql",
		"sql/00004_match_score.sql",
	}, files)

	for _, name := range files {
		data, err := fs.ReadFile(embedded, name)
		require.NoError(t, err)
		body := string(data)
		assert.True(t, strings.HasPrefix(body, "-- +goose Up"), name)
		assert.Contains(t, body, "-- +goose Down", name)
	}
}
