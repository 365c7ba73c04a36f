package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"ops-mcs/cmd/mockgen/engine"
	"ops-mcs/internal/config"
	"ops-mcs/internal/dataset"
	"ops-mcs/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose  bool
	dataFile string
	cfg      *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "ops-mcs",
	Short: "OPS-MCS projects operational metrics with Monte Carlo scenarios",
	Long: `Projects monthly operational KPIs per facility under several named scenarios
using Monte Carlo random walks, and serves the results over MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("OPS-MCS starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

// Execute runs the root command until it completes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataFile, "data", "d", "", "input dataset (.csv or .db); defaults to operational_metrics.csv under DATA_PATH")

	rootCmd.AddCommand(generateCmd, processCmd, scenariosCmd, reportCmd, serveCmd)
}

// inputPath resolves the dataset file from the flag or the configured data directory.
func inputPath() string {
	if dataFile != "" {
		return dataFile
	}
	return filepath.Join(cfg.DataPath, engine.CSVFile)
}

// loadStore reads the input dataset. Files ending in .db, .sqlite or .sqlite3
// are read as SQLite databases.
func loadStore(ctx context.Context) (*dataset.Store, error) {
	path := inputPath()

	var (
		records []dataset.Record
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		records, err = dataset.LoadSQLite(ctx, path, dataset.DefaultTable)
	default:
		records, err = dataset.ReadCSVFile(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dataset %s not found; run `ops-mcs generate` first: %w", path, err)
		}
		return nil, err
	}

	store := dataset.NewStoreFrom(records)
	log.Info().
		Str("path", path).
		Int("records", store.Len()).
		Int("series", len(store.Keys())).
		Msg("Loaded dataset")
	return store, nil
}
