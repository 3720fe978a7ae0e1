package challenge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"NinetyDays/internal/custody"
	"NinetyDays/internal/model"
)

// PersistedState is the on-disk form of a challenge: the ledger and the
// custody vault are always written together.
type PersistedState struct {
	Ledger    *model.LedgerState `json:"ledger"`
	Custody   custody.State      `json:"custody"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// LoadState reads the challenge state from a JSON file. Returns an empty
// state (nil Ledger) if the file doesn't exist.
func LoadState(filePath string) (*PersistedState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &PersistedState{}, nil
		}
		return nil, err
	}
	var state PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return &state, nil
}

// SaveState writes the challenge state to a JSON file. The file is replaced
// atomically so a crash never leaves a half-written ledger behind.
func SaveState(filePath string, state *PersistedState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
