// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "data/airbnb_ab_test.db"
	//   "file:ab.db?cache=shared"
	//   ":memory:"
	DSN string

	// BatchSize is the number of rows inserted per prepared-statement batch.
	BatchSize int
}
