package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/internal/pkg/config"
)

func TestDialector(t *testing.T) {
	pg, err := Dialector(config.DatabaseConfig{Driver: config.DriverPostgres, DSN: "host=localhost"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", pg.Name())

	my, err := Dialector(config.DatabaseConfig{Driver: config.DriverMySQL, DSN: "u:p@tcp(localhost:3306)/db"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", my.Name())

	_, err = Dialector(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestModelsCoverAllTables(t *testing.T) {
	assert.Len(t, Models(), 9)
}
