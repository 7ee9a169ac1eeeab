package back

import (
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3" // migrate driver
	_ "github.com/golang-migrate/migrate/v4/source/file"      // migrate source
)

// Migrate brings the SQLite database at dbPath up to date with the
// migrations found in dir.
func Migrate(dbPath, dir string) error {
	migrator, err := migrate.New("file://"+dir, "sqlite3://"+dbPath)
	if err != nil {
		return fmt.Errorf("unable to load migrations: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Print("debug: schema is up to date")
			return nil
		}

		return fmt.Errorf("unable to migrate: %w", err)
	}

	version, _, err := migrator.Version()
	if err != nil {
		return err
	}
	log.Printf("info: migrated schema to version %d", version)

	return nil
}
