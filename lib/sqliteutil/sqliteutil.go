// Package sqliteutil opens the sqlite-compatible databases the
// pipeline loads into, either local files or remote libsql instances.
package sqliteutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// remote dsns go through the libsql driver, everything else is
// treated as a file path for the embedded driver
func isRemote(path string) bool {
	for _, scheme := range []string{"libsql://", "wss://", "ws://", "https://", "http://"} {
		if strings.HasPrefix(path, scheme) {
			return true
		}
	}
	return false
}

// OpenDB opens the database at path, creating parent directories for
// local files as needed.
func OpenDB(path string) (*sql.DB, error) {
	if isRemote(path) {
		db, err := sql.Open("libsql", path)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
		return db, nil
	}

	if path != ":memory:" {
		os.MkdirAll(filepath.Dir(path), 0777)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}

	return db, nil
}
