// Package warehouse is the boundary between pipeline stages and the SQL
// warehouse they load.
//
// A Client runs one statement per round-trip in autocommit mode. Driver and
// server failures surface as retryable EXECUTION_ERROR values that keep the
// SQLSTATE in their details, so callers can tell a missing table apart from
// a transient fault with IsUndefinedTable.
//
// Two clients ship with the package: Postgres on a pgx pool (Redshift speaks
// the Postgres wire protocol) and Gorm over a database.DB for local sqlite
// runs. Connections maps the connection ids named in pipeline definitions to
// clients.
package warehouse
