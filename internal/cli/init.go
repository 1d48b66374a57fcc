package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/geotask/internal/config"
	"github.com/mesh-intelligence/geotask/internal/paths"
	"github.com/mesh-intelligence/geotask/internal/sqlite"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

func newInitCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize geotask configuration and local storage",
		Long:  "Create the configuration directory with a default config.yaml, then create the local session store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, configDir, err := loadConfig(f)
			if err != nil {
				return err
			}
			dataDir, err := paths.ResolveDataDir(f.dataDir, cfg.DataDir)
			if err != nil {
				return systemError(fmt.Errorf("resolve data dir: %w", err))
			}

			// Initialize the data directory via Attach then Detach.
			store := sqlite.NewBackend(nil)
			if err := store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}); err != nil {
				return systemError(fmt.Errorf("initialize storage: %w", err))
			}
			if err := store.Detach(); err != nil {
				return systemError(fmt.Errorf("finalize storage: %w", err))
			}

			out := cmd.OutOrStdout()
			if f.jsonMode {
				return printJSON(out, map[string]string{
					"config_file": config.Path(configDir),
					"data_dir":    dataDir,
					"api_url":     cfg.APIURL,
				})
			}
			fmt.Fprintln(out, "geotask initialized successfully")
			fmt.Fprintf(out, "config: %s\ndata:   %s\napi:    %s\n", config.Path(configDir), dataDir, cfg.APIURL)
			return nil
		},
	}
}
