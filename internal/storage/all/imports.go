// Package all wires all built-in storage backends into the storage factory.
//
// Importing it (even as a blank import) runs each backend's init, which
// registers its factory with the storage package, making the following kinds
// available at runtime:
//
//   - "postgres" (abprep/internal/storage/postgres)
//   - "mssql"    (abprep/internal/storage/mssql)
//   - "mysql"    (abprep/internal/storage/mysql)
//   - "sqlite"   (abprep/internal/storage/sqlite)
//
// A binary that needs only a subset can import the backends directly instead.
package all

import (
	_ "abprep/internal/storage/mssql"
	_ "abprep/internal/storage/mysql"
	_ "abprep/internal/storage/postgres"
	_ "abprep/internal/storage/sqlite"
)
