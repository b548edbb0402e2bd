// Package database opens GORM connections with retries, pooling and a
// zerolog-backed GORM logger.
//
// It backs the gorm warehouse adapter used for local runs and tests:
//
//	db, err := database.Open(ctx, database.Config{Driver: "sqlite", DSN: "file:dev.db"}, log)
//	defer db.Close()
//	client := warehouse.NewGorm("local", db)
package database
