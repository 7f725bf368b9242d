package storage

import (
	"database/sql"
	"errors"
)

var ErrNoLineItems = errors.New("purchase order has no line items")

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}
