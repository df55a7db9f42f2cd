// Package storage provides key-value backends for [pixelshapes.Persister].
//
// Three backends are available:
//
//	storage.NewMemory()            // process-local, for tests and previews
//	storage.NewFile(dir)           // one file per key, atomic replace
//	storage.OpenSQLite(path)       // a kv table in an SQLite database (WAL)
//
// [Open] picks one by driver name, as named in the config file.
package storage
