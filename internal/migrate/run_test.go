package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedVersions_Sorted(t *testing.T) {
	versions, err := embeddedVersions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)

	assert.Equal(t, "0001_users", versions[0])
	assert.IsIncreasing(t, versions)
	for _, v := range versions {
		assert.NotContains(t, v, ".sql")
	}
}

func TestEmbeddedMigrations_CreateCoreTables(t *testing.T) {
	var all string
	versions, err := embeddedVersions()
	require.NoError(t, err)
	for _, v := range versions {
		b, rerr := migrationsFS.ReadFile("migrations/" + v + ".sql")
		require.NoError(t, rerr)
		all += string(b)
	}

	for _, table := range []string{"users", "saved_posts", "reports"} {
		assert.Contains(t, all, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, all, "PRIMARY KEY (user_id, post_id)")
}
