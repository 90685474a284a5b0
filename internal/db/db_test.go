package db

import (
	"testing"
	"time"

	"github.com/joblo-ai/backend/internal/config"

	"github.com/stretchr/testify/require"
)

func TestMySQLConfig(t *testing.T) {
	conf, err := mysqlConfig(config.Database{
		Net:      "tcp",
		Server:   "localhost:3306",
		DBName:   "accounts",
		User:     "app",
		Password: "secret",
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)

	require.Equal(t, "localhost:3306", conf.Addr)
	require.Equal(t, "accounts", conf.DBName)
	require.True(t, conf.ParseTime)

	// An update that leaves a row unchanged must still count it, otherwise
	// idempotent setters read as missing rows.
	require.True(t, conf.ClientFoundRows)
}

func TestMySQLConfigBadTimeZone(t *testing.T) {
	_, err := mysqlConfig(config.Database{TimeZone: "Nowhere/Nope"})
	require.Error(t, err)
}
