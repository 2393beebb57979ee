// Package mekforge parses simulation flags and runs a full game to
// completion.
package mekforge

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mekforge/mekforge/internal/game/engine"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/unit"
	entrypoint "github.com/mekforge/mekforge/internal/platform/cmd"
	"github.com/mekforge/mekforge/internal/storage"
	"github.com/mekforge/mekforge/internal/storage/bbolt"
	"github.com/mekforge/mekforge/internal/storage/memory"
	"github.com/mekforge/mekforge/internal/storage/sqlite"
)

// Config holds mekforge command configuration.
type Config struct {
	Seed      int64  `env:"MEKFORGE_SEED"`
	TurnLimit int    `env:"MEKFORGE_TURN_LIMIT" envDefault:"20"`
	Store     string `env:"MEKFORGE_STORE" envDefault:"memory"`
	StorePath string `env:"MEKFORGE_STORE_PATH"`
	Roster    string `env:"MEKFORGE_ROSTER"`
	GameID    string `env:"MEKFORGE_GAME_ID"`
	Verbose   bool   `env:"MEKFORGE_VERBOSE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Dice seed (0 picks one from the clock)")
	fs.IntVar(&cfg.TurnLimit, "turn-limit", cfg.TurnLimit, "End the game in a draw after this many turns (0 = unlimited)")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Event store backend: memory, sqlite or bbolt")
	fs.StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "Path to the event store database (sqlite/bbolt)")
	fs.StringVar(&cfg.Roster, "roster", cfg.Roster, "Path to a roster JSON file (omit for the built-in duel)")
	fs.StringVar(&cfg.GameID, "game-id", cfg.GameID, "Game identifier (generated when empty)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Print every event as it is logged")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// rosterFile is the on-disk roster format.
type rosterFile struct {
	Units       []unit.Sheet       `json:"units"`
	Deployments []event.Deployment `json:"deployments,omitempty"`
}

// Run plays one game to completion, persists its log, and reports the
// outcome.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMekforge, func(ctx context.Context) error {
		roster, deployments, err := loadRoster(cfg.Roster)
		if err != nil {
			return err
		}

		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		session, err := engine.RunToCompletion(engine.Config{
			GameID:    cfg.GameID,
			Seed:      seed,
			TurnLimit: cfg.TurnLimit,
		}, roster, deployments, nil, nil, nil)
		if err != nil {
			return err
		}

		if cfg.Verbose {
			for _, evt := range session.Events {
				data, err := event.Marshal(evt)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			}
		}

		store, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		if err := store.AppendEvents(ctx, session.Config.GameID, session.Events); err != nil {
			return fmt.Errorf("persist game %s: %w", session.Config.GameID, err)
		}

		final := session.Final
		log.Printf("game %s: %d events over %d turns (seed %d)",
			session.Config.GameID, len(session.Events), final.Turn, seed)
		if final.Result != nil {
			if final.Result.Winner == "" {
				log.Printf("result: draw (%s)", final.Result.Reason)
			} else {
				log.Printf("result: %s wins (%s)", final.Result.Winner, final.Result.Reason)
			}
		}
		return nil
	})
}

// loadRoster reads a roster file, or falls back to the built-in demo duel
// when no path is given.
func loadRoster(path string) ([]unit.Sheet, []event.Deployment, error) {
	if path == "" {
		return demoRoster()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read roster: %w", err)
	}
	var rf rosterFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	if len(rf.Units) == 0 {
		return nil, nil, fmt.Errorf("roster %s lists no units", path)
	}
	return rf.Units, rf.Deployments, nil
}

func openStore(cfg Config) (storage.EventStore, func(), error) {
	switch cfg.Store {
	case "", "memory":
		return memory.New(), func() {}, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "bbolt":
		s, err := bbolt.Open(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
