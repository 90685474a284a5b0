package db

import (
	"fmt"
	"time"

	"github.com/joblo-ai/backend/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// DuplicateEntry is the MySQL error number for unique-key violations.
const DuplicateEntry = 1062

// New opens the MySQL pool described by cfg and verifies it with a ping.
func New(cfg config.Database) (*sqlx.DB, error) {
	conf, err := mysqlConfig(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Connect("mysql", conf.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("db connection failed: %w", err)
	}

	conn.SetMaxIdleConns(cfg.MaxIdleConnections)
	conn.SetMaxOpenConns(cfg.MaxOpenConnections)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}

	return conn, nil
}

// mysqlConfig translates the env config into driver settings. ClientFoundRows
// makes RowsAffected report matched rows instead of changed rows, so an
// update that rewrites a column to its current value is not mistaken for a
// missing row.
func mysqlConfig(cfg config.Database) (*mysql.Config, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load db time zone failed: %w", err)
	}

	conf := mysql.NewConfig()
	conf.Net = cfg.Net
	conf.Addr = cfg.Server
	conf.User = cfg.User
	conf.Passwd = cfg.Password
	conf.DBName = cfg.DBName
	conf.Timeout = cfg.Timeout
	conf.Loc = location
	conf.ParseTime = true
	conf.ClientFoundRows = true

	return conf, nil
}
