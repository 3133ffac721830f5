package main

import (
	"context"
	"fmt"
	"os"

	"github.com/twells89/sigma-data-model-tool/internal/archive"
	"github.com/twells89/sigma-data-model-tool/internal/sigma"
	"github.com/twells89/sigma-data-model-tool/pkg/config"
)

// newSigmaClient builds the API client from the environment. Credentials
// are read here, at the edge, and handed to the client as explicit config.
func newSigmaClient() (*sigma.Client, error) {
	cfg := sigma.Config{
		ClientID: os.Getenv("SIGMA_CLIENT_ID"),
		Secret:   os.Getenv("SIGMA_SECRET"),
		Cloud:    os.Getenv("SIGMA_CLOUD"),
		BaseURL:  os.Getenv("SIGMA_BASE_URL"),
	}
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("SIGMA_CLIENT_ID and SIGMA_SECRET environment variables required")
	}
	return sigma.NewClient(cfg)
}

// openArchive builds the configured archive store. Archiving is optional;
// a backend that fails to initialize downgrades to a warning.
func openArchive(ctx context.Context, cfg *config.Config) archive.Store {
	store, err := archive.NewFromConfig(ctx, cfg.Archive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: archive disabled: %v\n", err)
		return nil
	}
	return store
}
