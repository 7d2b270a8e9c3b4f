// Package identity owns account records for contactbook.
//
// Identity rows are keyed by email and are mutated only through the Store
// operations: Create, SetRefreshToken (compare-and-set), MarkConfirmed and
// UpdatePasswordHash.
//
// PostgresStore runs over pgxpool. MemoryStore backs development runs without
// a database and most tests.
package identity
