package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-only view of an error chain. It never reaches clients.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	// pgx backs the gorm postgres driver; lib/pq shows up through goose.
	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.fillPG(pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.ColumnName, pgxErr.Detail, pgxErr.Message)
	case errors.As(err, &pqErr):
		d.fillPG(string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Column, pqErr.Detail, pqErr.Message)
	}
	return d
}

func (d *ErrorDump) fillPG(code, constraint, table, column, detail, message string) {
	d.PGCode = code
	d.PGConstraint = constraint
	d.PGTable = table
	d.PGColumn = column
	d.PGDetail = detail
	d.PGMessage = message
}
