package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/twells89/sigma-data-model-tool/internal/archive"
	"github.com/twells89/sigma-data-model-tool/internal/sigma"
	"github.com/twells89/sigma-data-model-tool/pkg/config"
	"github.com/twells89/sigma-data-model-tool/pkg/model"
)

func newSyncCmd() *cobra.Command {
	var (
		all        bool
		folderID   string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "sync [file...]",
		Short: "Push local data model specs to Sigma",
		Long: `Uploads spec files to the Sigma API. Files mapped in config.yml (or
carrying a dataModelId) update the existing model; anything else is
created as a new model. After each push the server-side revision is
written back so local files carry the server-assigned fields.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("no files given: pass spec files or --all")
			}
			return runSync(cmd.Context(), syncOpts{
				files:      args,
				all:        all,
				folderID:   folderID,
				configPath: configPath,
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Sync every data model mapped in config.yml")
	cmd.Flags().StringVar(&folderID, "folder", "", "Sigma folder for newly created models")
	cmd.Flags().StringVar(&configPath, "config", config.FileName, "Path to the mapping config file")

	return cmd
}

type syncOpts struct {
	files      []string
	all        bool
	folderID   string
	configPath string
}

func runSync(ctx context.Context, opts syncOpts) error {
	client, err := newSigmaClient()
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	files := opts.files
	if opts.all {
		for _, m := range cfg.DataModels {
			files = append(files, filepath.Join("data-models", m.File))
		}
		if len(files) == 0 {
			return fmt.Errorf("nothing to sync: no data models mapped in %s", opts.configPath)
		}
	}

	folderID := firstNonEmpty(opts.folderID, cfg.DefaultFolderID, os.Getenv("SIGMA_FOLDER_ID"))
	store := openArchive(ctx, cfg)

	failed := 0
	for _, file := range files {
		if err := syncOne(ctx, client, cfg, store, file, folderID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: sync %s: %v\n", file, err)
			failed++
		}
	}

	if err := config.Save(opts.configPath, cfg); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to sync", failed, len(files))
	}
	return nil
}

func syncOne(ctx context.Context, client *sigma.Client, cfg *config.Config, store archive.Store, file, folderID string) error {
	doc, err := model.Load(file)
	if err != nil {
		return err
	}

	id := firstNonEmpty(cfg.ModelIDForFile(file), sigma.EmbeddedModelID(doc))
	created := false

	if id == "" {
		clean, err := sigma.PrepareForCreate(doc, folderID)
		if err != nil {
			return err
		}
		id, err = client.CreateFromSpec(ctx, clean)
		if err != nil {
			return err
		}
		created = true
	} else if err := client.UpdateSpec(ctx, id, doc); err != nil {
		return err
	}

	// Read back the server revision so the local file carries the
	// server-assigned fields and the bumped documentVersion.
	synced, err := client.GetSpec(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch synced spec: %w", err)
	}
	if err := model.Save(file, synced); err != nil {
		return err
	}

	cfg.RecordSync(id, file, synced.Name, time.Now())
	if created {
		fmt.Printf("Created `%s` as %s\n", synced.Name, id)
	} else {
		fmt.Printf("Updated `%s` (%s)\n", synced.Name, id)
	}

	archiveSpec(ctx, store, id, synced)
	return nil
}
