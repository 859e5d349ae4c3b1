package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/five82/myway/internal/config"
	"github.com/five82/myway/internal/geo"
	"github.com/five82/myway/internal/marker"
	"github.com/five82/myway/internal/nav"
	"github.com/five82/myway/internal/store/local"
	"github.com/five82/myway/internal/store/remote"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	cfg := config.Default()
	cfg.LogFile = filepath.Join(dir, "myway.log")
	cfg.Local.Path = filepath.Join(dir, "myway.db")
	cfg.Geolocation.Provider = config.ProviderStatic
	return cfg
}

func TestBuild_LocalStorePersistsAcrossBuilds(t *testing.T) {
	cfg := testConfig(t)

	deps, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if _, ok := deps.Adapter.(*local.Adapter); !ok {
		t.Fatalf("Adapter = %T, want *local.Adapter", deps.Adapter)
	}
	if deps.Lookup != nil {
		t.Fatalf("Lookup should be disabled for the local store")
	}
	if deps.Nav.Current().Screen != nav.Map {
		t.Fatalf("initial screen = %q, want %q", deps.Nav.Current().Screen, nav.Map)
	}

	ctx := context.Background()
	draft := marker.Marker{Name: "Park", Latitude: "-23.55", Longitude: "-46.63", MarkerColor: "#00FF00"}
	created, err := deps.Markers.Add(ctx, draft)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := deps.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	deps, err = Build(cfg)
	if err != nil {
		t.Fatalf("second Build returned error: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })
	if err := deps.Markers.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got, ok := deps.Markers.Find(created.ID); !ok || got.Name != "Park" {
		t.Fatalf("Find(%q) = %#v, %v", created.ID, got, ok)
	}

	if _, err := os.Stat(cfg.LogFile); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

func TestBuild_RemoteStoreEnablesLookup(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = config.StoreRemote

	deps, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })

	if _, ok := deps.Adapter.(*remote.Client); !ok {
		t.Fatalf("Adapter = %T, want *remote.Client", deps.Adapter)
	}
	if deps.Lookup == nil {
		t.Fatalf("Lookup should be enabled for the remote store")
	}
	if got := backendLabel(cfg); got != "remote locations" {
		t.Fatalf("backendLabel = %q", got)
	}
}

func TestBuildLocator(t *testing.T) {
	static := buildLocator(config.GeolocationConfig{Provider: config.ProviderStatic, Latitude: 1, Longitude: 2})
	fix, err := static.CurrentPosition(context.Background())
	if err != nil || fix != (geo.Coordinate{Latitude: 1, Longitude: 2}) {
		t.Fatalf("static fix = %v, %v", fix, err)
	}

	denied := buildLocator(config.GeolocationConfig{Provider: config.ProviderDenied})
	if _, err := denied.CurrentPosition(context.Background()); err != geo.ErrPermissionDenied {
		t.Fatalf("denied err = %v, want ErrPermissionDenied", err)
	}

	if _, ok := buildLocator(config.GeolocationConfig{Provider: config.ProviderIP}).(*geo.IPLocator); !ok {
		t.Fatalf("ip provider did not build an IPLocator")
	}
}
