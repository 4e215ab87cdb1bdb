// cmd/kpi/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/farmakpi/backend-go/internal/config"
	"github.com/farmakpi/backend-go/internal/domain"
	"github.com/farmakpi/backend-go/pkg/logger"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	app := &cli.App{
		Name:  "kpi",
		Usage: "Compute and manage pharmacy inventory KPIs",
		Commands: []*cli.Command{
			{
				Name:  "compute",
				Usage: "Run the KPI engine over a transactions export and commit one period",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Transactions CSV file",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:     "start",
						Usage:    "Period start date (YYYY-MM-DD, inclusive)",
						Layout:   "2006-01-02",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:     "end",
						Usage:    "Period end date (YYYY-MM-DD, exclusive)",
						Layout:   "2006-01-02",
						Required: true,
					},
				},
				Action: runCompute,
			},
			{
				Name:  "fetch",
				Usage: "Download transaction exports from object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Object key prefix to download",
						Value: "exports/",
					},
					&cli.StringFlag{
						Name:  "dest",
						Usage: "Local destination directory",
						Value: "./data/exports",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Parallel downloads",
						Value: 4,
					},
				},
				Action: runFetch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func periodFromFlags(c *cli.Context) (domain.Period, error) {
	start := c.Timestamp("start")
	end := c.Timestamp("end")
	if start == nil || end == nil {
		return domain.Period{}, fmt.Errorf("start and end dates are required")
	}
	p := domain.Period{Start: start.UTC().Truncate(24 * time.Hour), End: end.UTC().Truncate(24 * time.Hour)}
	if !p.Start.Before(p.End) {
		return domain.Period{}, fmt.Errorf("start date must precede end date")
	}
	return p, nil
}
