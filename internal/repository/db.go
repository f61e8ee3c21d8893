package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Queries runs the dashboard's read queries against one schema.
type Queries struct {
	db     DBTX
	schema string
	stmts  statements
}

// New binds the queries to db and to the tables of schema.
func New(db DBTX, schema string) *Queries {
	return &Queries{
		db:     db,
		schema: schema,
		stmts:  buildStatements(schema),
	}
}

// WithTx returns a copy of the queries bound to tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{
		db:     tx,
		schema: q.schema,
		stmts:  q.stmts,
	}
}

// Schema reports the schema the queries are bound to.
func (q *Queries) Schema() string {
	return q.schema
}
