package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMySQLDSNDefaults(t *testing.T) {
	dsn, err := mysqlDSN(Config{User: "tracker", Password: "pw", Name: "admintrack"})
	require.NoError(t, err)
	require.Equal(t, "tracker:pw@tcp(127.0.0.1:3306)/admintrack?charset=utf8mb4&loc=UTC&parseTime=True", dsn)
}

func TestMySQLDSNOptionsOverride(t *testing.T) {
	dsn, err := mysqlDSN(Config{
		User:    "tracker",
		Name:    "admintrack",
		Host:    "db.internal",
		Port:    3307,
		Options: map[string]string{"loc": "Local", "tls": "true"},
	})
	require.NoError(t, err)
	require.Equal(t, "tracker@tcp(db.internal:3307)/admintrack?charset=utf8mb4&loc=Local&parseTime=True&tls=true", dsn)
}

func TestMySQLDSNRequiresUserAndName(t *testing.T) {
	_, err := mysqlDSN(Config{User: "tracker"})
	require.Error(t, err)
}

func TestMySQLDSNPassthrough(t *testing.T) {
	dsn, err := mysqlDSN(Config{DSN: "tracker@tcp(10.0.0.1:3306)/raw"})
	require.NoError(t, err)
	require.Equal(t, "tracker@tcp(10.0.0.1:3306)/raw", dsn)
}

func TestPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "tracker", Password: "pw", Name: "admintrack"})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=tracker dbname=admintrack password=pw sslmode=disable", dsn)
}

func TestPostgresDSNOptionsSorted(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:    "tracker",
		Name:    "admintrack",
		Options: map[string]string{"sslmode": "require", "connect_timeout": "5"},
	})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=tracker dbname=admintrack connect_timeout=5 sslmode=require", dsn)
}

func TestPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{Name: "admintrack"})
	require.Error(t, err)
}
