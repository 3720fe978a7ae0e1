package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"NinetyDays/internal/challenge"
	"NinetyDays/internal/config"
	"NinetyDays/internal/ledger"
	"NinetyDays/internal/model"
	"NinetyDays/internal/recorder"
)

var configPath string

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "Path to the YAML config file")
}

var rootCmd = &cobra.Command{
	Use:           "ninetydays",
	Short:         "Ninety-day staking challenge ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// session is an open ledger together with the lock guarding its state file.
type session struct {
	cfg      *config.Config
	manager  *challenge.Manager
	recorder recorder.Recorder
	lock     *flock.Flock
}

// openSession locks the state file and loads the ledger. Only one process
// may hold a ledger at a time.
func openSession(cfg *config.Config, extra ...challenge.Sink) (*session, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Ledger.StateFile), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	lockPath := cfg.Ledger.StateFile + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock %s; is ninetydays serve already running?", lockPath)
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
		}
	}

	sinks := append([]challenge.Sink{rec}, extra...)
	cm, err := challenge.NewManager(cfg.Ledger.StateFile, model.Identity(cfg.Ledger.ID),
		model.Identity(cfg.Ledger.Administrator), ledger.SystemClock{}, sinks...)
	if err != nil {
		rec.Close()
		lock.Unlock()
		return nil, fmt.Errorf("init challenge manager: %w", err)
	}
	return &session{cfg: cfg, manager: cm, recorder: rec, lock: lock}, nil
}

func (s *session) Close() {
	if err := s.recorder.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
	if err := s.lock.Unlock(); err != nil {
		log.Printf("[WARN] release state lock: %v", err)
	}
}
