package adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	m "mreval.dev/pkg/mreval/internal/model"
)

// ErrCorruptState is returned for execution-state files that cannot be parsed
// or lack a required key.
var ErrCorruptState = errors.New("corrupt execution state")

// StateStore reads and writes execution-state records.
type StateStore interface {
	SaveState(path m.Path, state m.ExecutionState) error
	// LoadState decodes numbers as json.Number so values keep their
	// original textual form.
	LoadState(path m.Path) (m.ExecutionState, error)
}

type jsonStateStore struct {
	fsAdapter ArtifactFSAdapter
}

// NewStateStore returns a JSON StateStore backed by fsAdapter.
func NewStateStore(fsAdapter ArtifactFSAdapter) StateStore {
	return &jsonStateStore{fsAdapter: fsAdapter}
}

func (s *jsonStateStore) SaveState(path m.Path, state m.ExecutionState) error {
	content, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := s.fsAdapter.WriteFileAtomic(path, content); err != nil {
		slog.Error("Failed to write state", "path", path, "error", err)
		return fmt.Errorf("failed to write state: %w", err)
	}

	return nil
}

func (s *jsonStateStore) LoadState(path m.Path) (m.ExecutionState, error) {
	content, err := s.fsAdapter.ReadFile(path)
	if err != nil {
		return m.ExecutionState{}, fmt.Errorf("failed to read state: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := decodeJSON(content, &raw); err != nil {
		return m.ExecutionState{}, fmt.Errorf("%w: %s: %w", ErrCorruptState, path, err)
	}

	for _, key := range []string{"systemId", "testId", "variables"} {
		if _, ok := raw[key]; !ok {
			return m.ExecutionState{}, fmt.Errorf("%w: %s: missing %q", ErrCorruptState, path, key)
		}
	}

	var variables map[string]json.RawMessage
	if err := decodeJSON(raw["variables"], &variables); err != nil {
		return m.ExecutionState{}, fmt.Errorf("%w: %s: variables: %w", ErrCorruptState, path, err)
	}

	for _, key := range []string{"inputs", "outputs"} {
		if _, ok := variables[key]; !ok {
			return m.ExecutionState{}, fmt.Errorf("%w: %s: missing \"variables.%s\"", ErrCorruptState, path, key)
		}
	}

	var state m.ExecutionState
	if err := decodeJSON(content, &state); err != nil {
		return m.ExecutionState{}, fmt.Errorf("%w: %s: %w", ErrCorruptState, path, err)
	}

	if state.Variables.Inputs == nil || state.Variables.Outputs == nil {
		return m.ExecutionState{}, fmt.Errorf("%w: %s: null variables", ErrCorruptState, path)
	}

	return state, nil
}

func decodeJSON(content []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	return dec.Decode(v)
}
