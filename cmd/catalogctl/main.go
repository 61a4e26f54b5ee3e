// Command catalogctl is the operator tool for the catalog matcher: it runs
// migrations, seeds brands, and drives suggestions and auto-links from a
// terminal.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vendora/backend/config"
	"github.com/vendora/backend/internal/app"
	"github.com/vendora/backend/internal/platform/logger"
)

var cmdMain = &cobra.Command{
	Use:          "catalogctl",
	Short:        "Vendora catalog matching operator tool",
	SilenceUsage: true,
}

var flagMain struct {
	LogMode string
}

func init() {
	cmdMain.PersistentFlags().StringVar(&flagMain.LogMode, "log-mode", "", "Override log.mode (development, production, test)")
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	if err := cmdMain.Execute(); err != nil {
		os.Exit(1)
	}
}

// openApp loads configuration and wires the application. migrate forces
// database.auto_migrate on.
func openApp(migrate bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if flagMain.LogMode != "" {
		cfg.Log.Mode = flagMain.LogMode
	}
	if migrate {
		cfg.Database.AutoMigrate = true
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.New(cfg, log)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
