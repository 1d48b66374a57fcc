// Package cli implements the geotask command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/geotask/internal/api"
	"github.com/mesh-intelligence/geotask/internal/config"
	"github.com/mesh-intelligence/geotask/internal/location"
	"github.com/mesh-intelligence/geotask/internal/tasks"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	apiURL    string
	logLevel  string
	jsonMode  bool
}

// NewRootCmd creates the top-level "geotask" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "geotask",
		Short: "Geotagged task management from the command line",
		Long: "geotask creates, assigns and tracks geotagged tasks on a task API,\n" +
			"lists tasks near your current position, and renders them as GeoJSON.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/geotask)")
	pf.StringVar(&f.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/geotask)")
	pf.StringVar(&f.apiURL, "api-url", "", "task API base URL (overrides config api_url)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&f.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(f))
	root.AddCommand(newLoginCmd(f))
	root.AddCommand(newRegisterCmd(f))
	root.AddCommand(newLogoutCmd(f))
	root.AddCommand(newWhoamiCmd(f))
	root.AddCommand(newTasksCmd(f))
	root.AddCommand(newNearbyCmd(f))
	root.AddCommand(newDashboardCmd(f))
	root.AddCommand(newProfileCmd(f))
	root.AddCommand(newUsersCmd(f))
	root.AddCommand(newLocateCmd(f))
	root.AddCommand(newDistanceCmd(f))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the CLI with args and returns the process exit code. Errors
// are printed to stderr.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", errorMessage(err))
		return exitCode(err)
	}
	return exitSuccess
}

// sysError marks failures of the local environment (config, store,
// network) as opposed to bad input.
type sysError struct {
	err error
}

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func systemError(err error) error {
	if err == nil {
		return nil
	}
	return &sysError{err: err}
}

// exitCode maps err to exitUserError or exitSysError.
func exitCode(err error) int {
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= http.StatusInternalServerError {
			return exitSysError
		}
		return exitUserError
	}
	var fe *tasks.FlowError
	if errors.As(err, &fe) {
		if fe.Stage == tasks.StageQuery {
			return exitSysError
		}
		return exitUserError
	}
	return exitUserError
}

// errorMessage returns the text shown for err, adding a hint where the
// user can act on it.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrNotLoggedIn), errors.Is(err, api.ErrUnauthorized):
		return err.Error() + " (run: geotask login)"
	case errors.Is(err, location.ErrNotSupported):
		return err.Error() + " (set location.source in config.yaml)"
	case errors.Is(err, config.ErrStaticNoCoords):
		return err.Error() + " (set location.latitude and location.longitude)"
	}
	return err.Error()
}
