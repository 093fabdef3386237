// Package all wires the built-in storage backends into the storage factory.
// Import it for side effects:
//
//	import _ "crashdash/internal/storage/all"
//
// which makes the "postgres" and "sqlite" kinds available to storage.New and
// storage.EnsureTable.
package all

import (
	_ "crashdash/internal/storage/postgres"
	_ "crashdash/internal/storage/sqlite"
)
