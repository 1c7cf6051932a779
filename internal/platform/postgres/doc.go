// Package postgres provides PostgreSQL-specific implementations for the
// persistence interfaces defined in the internal/store package. It handles
// query execution, transaction-scoped reconciliation, and mapping between
// domain entities and database rows, including the two association tables
// (account-key and key-character).
package postgres
