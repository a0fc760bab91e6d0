package db

import (
	"context"
	"fmt"
)

type DBType string

const (
	Postgres DBType = "postgres"
	Mongo    DBType = "mongo"
	Memory   DBType = "memory"
)

// ParseDBType maps the DB_TYPE setting onto a supported backend.
func ParseDBType(v string) (DBType, error) {
	switch t := DBType(v); t {
	case Postgres, Mongo, Memory:
		return t, nil
	default:
		return "", fmt.Errorf("DB_TYPE %q not supported", v)
	}
}

type DB interface {
	Connect() error
	Disconnect() error
	GetContext() context.Context
}
