// Package store defines the persistence contracts for accounts and refresh
// token records, a Postgres implementation on database/sql with the pgx
// driver, and in-memory implementations used in tests and embedded setups.
package store
