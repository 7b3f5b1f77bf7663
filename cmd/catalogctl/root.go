package main

import (
	"fmt"

	"rawvariant/internal/config"
	"rawvariant/internal/infra"
	"rawvariant/internal/pairing"
	"rawvariant/internal/repository"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const sqliteFlag = "sqlite"

// sqliteDSNFlag returns a fresh --sqlite flag for one command. Commands
// read it back through cmd.Flags() since the name is shared.
func sqliteDSNFlag() cobraflags.Flag {
	return &cobraflags.StringFlag{
		Name:  sqliteFlag,
		Value: "",
		Usage: "SQLite DSN to use instead of DATABASE_URL (local copies, tests)",
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Maintenance commands for raw/main product variant pairing",
		Long: `catalogctl works directly on the catalog database.

Configuration comes from the same environment variables as the API server
(DATABASE_URL, RAW_PRODUCT_PREFIX, MAIN_PRODUCT_PREFIX, PREFIX_SUFIX_SEPARATOR,
PAIRING_PRIMARY_ROLE, JWT_SECRET).

Examples:
  catalogctl audit
  catalogctl recompute-codes --template 3f0c...
  catalogctl token --role editor --user alice`,
		SilenceUsage: true,
	}

	root.AddCommand(newAuditCommand())
	root.AddCommand(newRecomputeCommand())
	root.AddCommand(newTokenCommand())
	return root
}

// openService loads the config and builds a pairing service over the
// SQLite database at sqliteDSN, or DATABASE_URL when it is empty.
func openService(sqliteDSN string) (*pairing.Service, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	pc, err := cfg.Pairing()
	if err != nil {
		return nil, nil, err
	}

	var db *gorm.DB
	if sqliteDSN != "" {
		db, err = infra.OpenSQLite(sqliteDSN)
	} else {
		db, err = infra.NewDatabase(cfg.DatabaseURL)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	// no cache invalidation here: the CLI never talks to Redis, entries
	// expire on their TTL
	return pairing.NewService(repository.NewCatalogRepository(db), pc, nil), db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
