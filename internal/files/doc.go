// Package files discovers the workbooks stored in the data directory.
//
// A Catalog lists the .xlsx and .xlsm files directly inside one directory,
// newest first, and resolves a bare file name to its path. Names that carry
// a directory component are rejected, so callers can pass user input to
// Resolve.
//
//	catalog := files.NewCatalog(paths.DataDir)
//	latest, ok, err := catalog.Latest()
package files
