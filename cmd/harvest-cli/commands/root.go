package commands

import (
	"context"
	"database/sql"
	"fmt"
	configlibsql "medharvest-backend/lib/configutil/libsql"
	"medharvest-backend/services/tenantstore"
	"medharvest-backend/services/tenantstore/registrydb"
	"os"

	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

var (
	registryPath *string
	dataDir      *string
	blobsDir     *string
)

func init() {
	registryPath = rootCmd.PersistentFlags().String("registry", "registry.db", "The tenant registry database.")
	dataDir = rootCmd.PersistentFlags().String("data-dir", "tenants", "The directory holding per-tenant databases.")
	blobsDir = rootCmd.PersistentFlags().String("blobs", "blobs", "The directory holding run result blobs.")
}

var rootCmd = &cobra.Command{
	Use:   "harvest-cli",
	Short: "harvest-cli inspects harvest state and plans resumed extraction runs.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore() (*tenantstore.Store, *sql.DB, error) {
	registry, err := configlibsql.Struct{File: *registryPath}.OpenDB(registrydb.Schema)
	if err != nil {
		return nil, nil, fmt.Errorf("open registry: %w", err)
	}
	store, err := tenantstore.NewStore(registry, *dataDir)
	if err != nil {
		registry.Close()
		return nil, nil, err
	}
	return store, registry, nil
}
