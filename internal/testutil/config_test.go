package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTestDBConfig(t *testing.T) {
	t.Run("defaults to local test database port 55432", func(t *testing.T) {
		for _, k := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
			t.Setenv(k, "")
		}

		cfg := DefaultTestDBConfig()
		assert.Equal(t, TestDBConfig{
			Host:     "localhost",
			Port:     "55432",
			User:     "creditfeed",
			Password: "creditfeed",
			DBName:   "creditfeed",
		}, cfg)
	})

	t.Run("respects TEST_DB_* environment variables", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "postgres")
		t.Setenv("TEST_DB_PORT", "5432")
		t.Setenv("TEST_DB_USER", "ci")
		t.Setenv("TEST_DB_PASSWORD", "secret")
		t.Setenv("TEST_DB_NAME", "ci_db")

		cfg := DefaultTestDBConfig()
		assert.Equal(t, "postgres", cfg.Host)
		assert.Equal(t, "5432", cfg.Port)
		assert.Equal(t, "ci", cfg.User)
		assert.Equal(t, "secret", cfg.Password)
		assert.Equal(t, "ci_db", cfg.DBName)
	})
}

func TestTestDBConfig_DSN(t *testing.T) {
	t.Setenv("DB_SSL_MODE", "")
	cfg := TestDBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n"}
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", cfg.DSN())

	t.Setenv("DB_SSL_MODE", "require")
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=require", cfg.DSN())
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "y"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.True(t, envBool("TESTUTIL_FLAG"), v)
	}
	for _, v := range []string{"", "0", "false", "no"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.False(t, envBool("TESTUTIL_FLAG"), v)
	}
}
