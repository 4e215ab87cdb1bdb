// cmd/kpi/fetch.go
package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/farmakpi/backend-go/internal/config"
	"github.com/farmakpi/backend-go/internal/storage"
)

func runFetch(c *cli.Context) error {
	cfg := config.Load()

	client, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return err
	}

	prefix := c.String("prefix")
	dest := c.String("dest")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	objects, err := client.ListObjects(c.Context, prefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		log.Info().Str("prefix", prefix).Msg("no exports found")
		return nil
	}

	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(c.Int("concurrency"))
	for _, obj := range objects {
		obj := obj
		g.Go(func() error {
			destPath := filepath.Join(dest, filepath.Base(obj.Key))
			if err := client.DownloadObject(ctx, obj.Key, destPath); err != nil {
				return err
			}
			log.Info().Str("key", obj.Key).Int64("size", obj.Size).Str("dest", destPath).Msg("export downloaded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Int("objects", len(objects)).Str("dest", dest).Msg("fetch complete")
	return nil
}
