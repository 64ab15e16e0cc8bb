// Package database provides SQLite connectivity for the actuation log.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Forward-only schema migrations loaded from an fs.FS
//   - Connection lifecycle and health checks
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql and live in
// the migrations package, which embeds them into the binary.
package database
