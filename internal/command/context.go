package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/parcelops/hub/internal/api"
	"github.com/parcelops/hub/internal/config"
	"github.com/parcelops/hub/internal/engine"
	"github.com/parcelops/hub/internal/localdb"
	"github.com/parcelops/hub/internal/logger"
	"github.com/parcelops/hub/internal/types"
)

// App is the wired client a command runs against.
type App struct {
	Config     config.Config
	Client     *api.Client
	Cache      *localdb.DB
	Store      *engine.Store
	Reads      *engine.ReadTracker
	Directory  *engine.Directory
	Scheduler  *engine.Scheduler
	Syncer     *engine.Syncer
	Optimistic *engine.Optimistic
}

// GetApp loads configuration and wires the engine. The local cache is
// optional: if it cannot be opened the session runs without persistence.
func GetApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Init(cfg.LogPath(), cfg.LogLevel)

	client, err := api.NewClient(cfg.BaseURL, cfg.Token, cfg.WorkspaceID)
	if err != nil {
		return nil, err
	}

	cache, err := localdb.Open(cfg.CachePath())
	if err != nil {
		logger.Log.Warn("local cache unavailable", "path", cfg.CachePath(), "err", err)
		cache = nil
	}

	store := engine.NewStore()
	var sink engine.CursorSink
	if cache != nil {
		sink = cache
	}
	reads := engine.NewReadTracker(client.MarkRead, sink)
	directory := engine.NewDirectory()
	scheduler := engine.NewScheduler()
	syncer := engine.NewSyncer(store, reads, directory, scheduler, client, sink)

	if cache != nil {
		if cursors, err := cache.LoadCursors(); err == nil {
			if mention, ok := cursors["mentions"]; ok {
				syncer.SeedMentionCursor(mention)
				delete(cursors, "mentions")
			}
			reads.Seed(cursors)
		}
	}

	return &App{
		Config:     cfg,
		Client:     client,
		Cache:      cache,
		Store:      store,
		Reads:      reads,
		Directory:  directory,
		Scheduler:  scheduler,
		Syncer:     syncer,
		Optimistic: engine.NewOptimistic(store, client, reads, cfg.UserID),
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
}

// ResolveChannel matches a channel reference (id, name, or unique name
// prefix) against the workspace channel list.
func (a *App) ResolveChannel(ctx context.Context, ref string) (types.Channel, error) {
	if err := a.Syncer.RefreshChannels(ctx); err != nil {
		return types.Channel{}, err
	}

	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	var match types.Channel
	found := 0
	for _, ch := range a.Store.Channels() {
		if ch.ID == ref || ch.Name == ref {
			return ch, nil
		}
		if strings.HasPrefix(ch.Name, ref) {
			match = ch
			found++
		}
	}
	switch found {
	case 1:
		return match, nil
	case 0:
		return types.Channel{}, fmt.Errorf("no channel matches %q", ref)
	default:
		return types.Channel{}, fmt.Errorf("channel reference %q is ambiguous", ref)
	}
}
