package main

import (
	configlibsql "medharvest-backend/lib/configutil/libsql"
	"medharvest-backend/services/tenantstore"
	"medharvest-backend/services/tenantstore/registrydb"
)

type TenantStoreConfig struct {
	Registry configlibsql.Struct `json:"registry"`
	// DataDir holds the per-tenant sqlite databases. Empty means in-memory,
	// which is only useful for local experiments.
	DataDir string `json:"data_dir"`
}

func InitTenantStore(cfg TenantStoreConfig) (*tenantstore.Store, error) {
	registry, err := cfg.Registry.OpenDB(registrydb.Schema)
	if err != nil {
		return nil, err
	}
	return tenantstore.NewStore(registry, cfg.DataDir)
}
