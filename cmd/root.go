package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"arcmemory/arc/internal/db"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "arc",
	Short: "Arc Memory: a knowledge graph over repository history",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the memory database")
}

const dbRelPath = ".arc/memory.db"

// DiscoverDB finds the database path using priority: env > flag > walk-up > XDG fallback
func DiscoverDB() (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("ARC_DB"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	// 2. CLI flag
	if dbPath != "" {
		if _, err := os.Stat(dbPath); err == nil {
			return dbPath, nil
		}
		return "", fmt.Errorf("database not found at --db path: %s", dbPath)
	}

	// 3. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, dbRelPath)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 4. XDG fallback
	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".local", "share", "arc-memory", "memory.db")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", fmt.Errorf("no memory database found (set ARC_DB, use --db, or run from a directory containing %s)", dbRelPath)
}

// OpenDatabase discovers and opens the database
func OpenDatabase() (*db.DB, error) {
	path, err := DiscoverDB()
	if err != nil {
		return nil, err
	}
	return db.OpenDB(path)
}

// CreateDatabase resolves the target path for a new database (flag or the
// default location under CWD), creates parent directories, and opens it
// with the schema applied.
func CreateDatabase() (*db.DB, error) {
	path := dbPath
	if path == "" {
		path = os.Getenv("ARC_DB")
	}
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		path = filepath.Join(cwd, dbRelPath)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	d, err := db.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := d.InitSchema(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}
