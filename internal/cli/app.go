package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/geotask/internal/api"
	"github.com/mesh-intelligence/geotask/internal/config"
	"github.com/mesh-intelligence/geotask/internal/location"
	"github.com/mesh-intelligence/geotask/internal/logging"
	"github.com/mesh-intelligence/geotask/internal/paths"
	"github.com/mesh-intelligence/geotask/internal/session"
	"github.com/mesh-intelligence/geotask/internal/sqlite"
	"github.com/mesh-intelligence/geotask/internal/tasks"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// app is the wiring shared by commands: configuration, logger, local store,
// API client, locator and task service. Close releases it.
type app struct {
	cfg       config.Config
	configDir string
	dataDir   string
	log       *logging.Logger
	store     *sqlite.Backend
	session   session.Store
	client    *api.Client
	locator   *location.Locator
	svc       *tasks.Service
	out       io.Writer
	json      bool
}

// loadConfig resolves the config directory and loads config.yaml, applying
// the --api-url and --log-level overrides.
func loadConfig(f *rootFlags) (config.Config, string, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return config.Config{}, "", systemError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return config.Config{}, "", err
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
		if err := cfg.Validate(); err != nil {
			return config.Config{}, "", err
		}
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg, configDir, nil
}

// openApp builds the full command environment.
func openApp(cmd *cobra.Command, f *rootFlags) (*app, error) {
	cfg, configDir, err := loadConfig(f)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, systemError(fmt.Errorf("open log: %w", err))
	}

	dataDir, err := paths.ResolveDataDir(f.dataDir, cfg.DataDir)
	if err != nil {
		logger.Close()
		return nil, systemError(fmt.Errorf("resolve data dir: %w", err))
	}

	store := sqlite.NewBackend(logger.Component("store"))
	if err := store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir, FixHistory: cfg.Location.History}); err != nil {
		logger.Close()
		return nil, systemError(fmt.Errorf("attach store: %w", err))
	}
	var sess session.Store
	if tok := os.Getenv(session.EnvToken); tok != "" {
		logger.Debug("using token from " + session.EnvToken)
		sess = session.NewMemory(tok)
	} else {
		stored, err := store.Session()
		if err != nil {
			store.Detach()
			logger.Close()
			return nil, systemError(err)
		}
		sess = stored
	}

	client, err := api.New(api.Config{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout}, sess, logger.Component("api"))
	if err != nil {
		store.Detach()
		logger.Close()
		return nil, err
	}

	locator := buildLocator(cfg.Location, store, logger.Component("location"))

	svc := tasks.NewService(client, locator, sess, tasks.Options{
		MapCenter:       types.Coordinate{Latitude: cfg.Map.CenterLatitude, Longitude: cfg.Map.CenterLongitude},
		DashboardCenter: types.Coordinate{Latitude: cfg.Map.DashboardLatitude, Longitude: cfg.Map.DashboardLongitude},
	}, logger.Component("tasks"))

	logger.WithFields(logrus.Fields{
		"config_dir": configDir,
		"data_dir":   dataDir,
		"api_url":    cfg.APIURL,
	}).Debug("geotask started")

	return &app{
		cfg:       cfg,
		configDir: configDir,
		dataDir:   dataDir,
		log:       logger,
		store:     store,
		session:   sess,
		client:    client,
		locator:   locator,
		svc:       svc,
		out:       cmd.OutOrStdout(),
		json:      f.jsonMode,
	}, nil
}

// Close detaches the store and closes the log file.
func (a *app) Close() {
	if err := a.store.Detach(); err != nil {
		a.log.WithError(err).Warn("detach store")
	}
	a.log.Close()
}

// buildLocator selects the position source from configuration. Fixes are
// cached in the store when caching is enabled.
func buildLocator(cfg config.LocationConfig, store *sqlite.Backend, log *logrus.Entry) *location.Locator {
	opts := location.Options{
		HighAccuracy: cfg.HighAccuracy,
		Timeout:      cfg.Timeout,
		MaximumAge:   cfg.MaximumAge,
	}

	var src location.Source
	switch cfg.Source {
	case config.SourceStatic:
		src = location.StaticSource{Coordinate: types.Coordinate{
			Latitude:  cfg.Latitude,
			Longitude: cfg.Longitude,
			Accuracy:  cfg.Accuracy,
		}}
	case config.SourceIP:
		src = location.NewIPSource(cfg.IPEndpoint, nil, log)
	default:
		return location.NewLocator(nil, opts, log)
	}

	if cfg.Cache {
		if fixes, err := store.Fixes(); err == nil {
			src = location.NewCachedSource(cfg.Source, src, fixes, log)
		}
	}
	return location.NewLocator(src, opts, log)
}

// requireLogin fails with ErrNotLoggedIn when no token is stored and warns
// when the stored token has expired.
func (a *app) requireLogin() error {
	_, claims, err := session.Current(a.session)
	switch {
	case err == nil:
	case errors.Is(err, types.ErrNotLoggedIn):
		return err
	default:
		// Opaque tokens are fine; the server decides.
		a.log.WithError(err).Debug("token claims unreadable")
		return nil
	}
	if claims.Expired(time.Now()) {
		a.log.WithField("expired_at", claims.ExpiresAt).Warn("access token has expired; log in again if requests fail")
	}
	return nil
}

// commandContext returns the command context, defaulting to Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
