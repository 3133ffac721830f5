package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/twells89/sigma-data-model-tool/internal/archive"
	"github.com/twells89/sigma-data-model-tool/internal/sigma"
	"github.com/twells89/sigma-data-model-tool/pkg/config"
	"github.com/twells89/sigma-data-model-tool/pkg/model"
)

func newPullCmd() *cobra.Command {
	var (
		name       string
		outDir     string
		configPath string
		listOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "pull [data-model-id...]",
		Short: "Export data model specs from Sigma into the repository",
		Long: `Fetches data model specs from the Sigma API and writes them as JSON
files. With no arguments every model already mapped in config.yml is
refreshed; pass IDs or --name to pull specific models.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(cmd.Context(), pullOpts{
				ids:        args,
				name:       name,
				outDir:     outDir,
				configPath: configPath,
				listOnly:   listOnly,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Pull the data model with this name")
	cmd.Flags().StringVar(&outDir, "out", "data-models", "Directory to write spec files into")
	cmd.Flags().StringVar(&configPath, "config", config.FileName, "Path to the mapping config file")
	cmd.Flags().BoolVar(&listOnly, "list", false, "List available data models without pulling")

	return cmd
}

type pullOpts struct {
	ids        []string
	name       string
	outDir     string
	configPath string
	listOnly   bool
}

func runPull(ctx context.Context, opts pullOpts) error {
	client, err := newSigmaClient()
	if err != nil {
		return err
	}

	if opts.listOnly {
		return listModels(ctx, client)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	ids := opts.ids
	if opts.name != "" {
		id, err := resolveModelByName(ctx, client, opts.name)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		// Refresh everything already mapped.
		for id := range cfg.DataModels {
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return fmt.Errorf("nothing to pull: no data models mapped in %s and none requested", opts.configPath)
		}
	}

	store := openArchive(ctx, cfg)

	failed := 0
	for _, id := range ids {
		if err := pullOne(ctx, client, cfg, store, id, opts.outDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: pull %s: %v\n", id, err)
			failed++
		}
	}

	if err := config.Save(opts.configPath, cfg); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d data model(s) failed to pull", failed, len(ids))
	}
	return nil
}

func pullOne(ctx context.Context, client *sigma.Client, cfg *config.Config, store archive.Store, id, outDir string) error {
	doc, err := client.GetSpec(ctx, id)
	if err != nil {
		return err
	}

	file := cfg.DataModels[id].File
	if file == "" {
		file = sanitizeFileName(doc.Name) + ".json"
	}
	path := filepath.Join(outDir, file)

	if err := model.Save(path, doc); err != nil {
		return err
	}
	cfg.RecordPull(id, file, doc.Name, time.Now())
	fmt.Printf("Pulled `%s` -> %s\n", doc.Name, path)

	archiveSpec(ctx, store, id, doc)
	return nil
}

func listModels(ctx context.Context, client *sigma.Client) error {
	models, err := client.ListDataModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println("No data models found")
		return nil
	}
	for _, m := range models {
		fmt.Printf("%s  %s\n", m.DataModelID, m.Name)
	}
	return nil
}

func resolveModelByName(ctx context.Context, client *sigma.Client, name string) (string, error) {
	models, err := client.ListDataModels(ctx)
	if err != nil {
		return "", err
	}
	for _, m := range models {
		if strings.EqualFold(m.Name, name) {
			return m.DataModelID, nil
		}
	}
	return "", fmt.Errorf("no data model named %q", name)
}

// archiveSpec stores a revision copy when archiving is configured.
// Failures are warnings: the working file is already on disk.
func archiveSpec(ctx context.Context, store archive.Store, id string, doc *model.Document) {
	if store == nil {
		return
	}
	version := sigma.DocumentVersion(doc)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err == nil {
		err = store.PutSpec(ctx, id, version, data)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: archive %s v%d: %v\n", id, version, err)
	}
}

// sanitizeFileName turns a data model name into a safe file name:
// anything outside [A-Za-z0-9._-] becomes an underscore.
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := strings.Trim(b.String(), "._")
	if s == "" {
		s = "data_model"
	}
	return s
}
