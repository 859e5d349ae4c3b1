package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/myway/internal/config"
	"github.com/five82/myway/internal/country"
	"github.com/five82/myway/internal/form"
	"github.com/five82/myway/internal/geo"
	"github.com/five82/myway/internal/logging"
	"github.com/five82/myway/internal/nav"
	"github.com/five82/myway/internal/prefs"
	"github.com/five82/myway/internal/state"
	"github.com/five82/myway/internal/store"
	"github.com/five82/myway/internal/store/kv"
	"github.com/five82/myway/internal/store/local"
	"github.com/five82/myway/internal/store/remote"
	"github.com/five82/myway/internal/ui"
)

const initialLoadTimeout = 5 * time.Second

// Options configure the myway application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/myway/prefs.toml
	Store      string // overrides the configured store backend when set
	LogLevel   string // overrides the configured log level when set
}

// Deps is everything the UI needs, built from configuration.
type Deps struct {
	Config   config.Config
	Logger   zerolog.Logger
	Adapter  store.Adapter
	Markers  *state.Markers
	Location *state.Location
	Locator  geo.Locator
	Lookup   form.CurrencyLookup
	Nav      *nav.Stack

	closers []io.Closer
}

// Close releases the log file and the local database.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// Run boots the myway TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Store != "" {
		cfg.Store = opts.Store
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	deps, err := Build(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close() }()

	deps.Logger.Info().Str("store", cfg.Store).Msg("myway starting")

	// Failures are logged and recorded by Markers; the map just starts empty.
	loadCtx, cancel := context.WithTimeout(ctx, initialLoadTimeout)
	_ = deps.Markers.Load(loadCtx)
	cancel()

	uiOpts := ui.Options{
		Context:        ctx,
		Logger:         deps.Logger,
		Markers:        deps.Markers,
		Location:       deps.Location,
		Locator:        deps.Locator,
		Lookup:         deps.Lookup,
		Nav:            deps.Nav,
		RequireCountry: cfg.IsRemote(),
		Backend:        backendLabel(cfg),
		ThemeName:      userPrefs.Theme,
		MapDelta:       userPrefs.MapDelta,
		PrefsPath:      opts.PrefsPath,
	}
	err = ui.Run(uiOpts)
	deps.Logger.Info().Msg("myway stopped")
	return err
}

// Build wires the store adapter, state containers and collaborators for cfg.
func Build(cfg config.Config) (*Deps, error) {
	deps := &Deps{Config: cfg}

	logger, logCloser, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	deps.Logger = logger
	deps.closers = append(deps.closers, logCloser)

	adapter, closer, err := buildAdapter(cfg)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	if closer != nil {
		deps.closers = append(deps.closers, closer)
	}
	deps.Adapter = adapter
	deps.Markers = state.NewMarkers(adapter, logger)
	deps.Location = &state.Location{}
	deps.Locator = buildLocator(cfg.Geolocation)
	deps.Nav = nav.NewStack(nav.Map)
	if cfg.IsRemote() {
		deps.Lookup = country.NewClient(cfg.Country.Endpoint, cfg.Country.Timeout)
	}
	return deps, nil
}

func buildAdapter(cfg config.Config) (store.Adapter, io.Closer, error) {
	switch cfg.Store {
	case config.StoreRemote:
		client, err := remote.NewClient(cfg.Remote.URL, cfg.Remote.Collection, cfg.Remote.APIKey, cfg.Remote.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("init remote store: %w", err)
		}
		return client, nil, nil
	case config.StoreLocal:
		slots, err := kv.Open(cfg.Local.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open local store: %w", err)
		}
		return local.New(slots, cfg.Local.Slot, nil), slots, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func buildLocator(g config.GeolocationConfig) geo.Locator {
	switch g.Provider {
	case config.ProviderStatic:
		return geo.StaticLocator{Fix: geo.Coordinate{Latitude: g.Latitude, Longitude: g.Longitude}}
	case config.ProviderDenied:
		return geo.DeniedLocator{}
	default:
		return geo.NewIPLocator(g.Endpoint)
	}
}

func backendLabel(cfg config.Config) string {
	if cfg.IsRemote() {
		return "remote " + cfg.Remote.Collection
	}
	return "local " + cfg.Local.Slot
}
