package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/daybuddy/internal/cli"
	"github.com/julianstephens/daybuddy/internal/storage"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	migrator, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return errors.New("the configured storage backend does not support migrations")
	}

	// Snapshot SQLite databases so a failed upgrade can be rolled back
	if mgr, err := backupManager(ctx); err == nil {
		if snap, err := mgr.Create(); err == nil {
			fmt.Printf("Backed up database to %s\n", snap.Path)
		}
	}

	count, err := migrator.Migrate(cmdContext(), func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
