package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	m "mreval.dev/pkg/mreval/internal/model"
)

// ErrInvalidStateValue is returned for state variables outside the
// supported value kinds.
var ErrInvalidStateValue = errors.New("invalid state value")

// ValidateState checks that every variable of state is a number, a boolean,
// a string sequence marker ("$...") or an array/list marker (["A", ...] or
// ["L", ...]).
func ValidateState(state m.ExecutionState) error {
	for kind, vars := range map[string]map[string]any{
		"input":  state.Variables.Inputs,
		"output": state.Variables.Outputs,
	} {
		for name, value := range vars {
			if !validStateValue(value) {
				return fmt.Errorf("%w: %s variable %s: %v", ErrInvalidStateValue, kind, name, value)
			}
		}
	}

	return nil
}

func validStateValue(value any) bool {
	switch v := value.(type) {
	case json.Number, float64, int, int64, bool:
		return true
	case string:
		return strings.HasPrefix(v, "$")
	case []any:
		if len(v) == 0 {
			return false
		}

		marker, ok := v[0].(string)

		return ok && (marker == "A" || marker == "L")
	default:
		return false
	}
}

// corruptionReport lists what removeCorruptStates deleted.
type corruptionReport struct {
	Removed []string
	// Conflicting holds test ids whose records disagreed on inputs.
	Conflicting []string
}

type loadedState struct {
	file    string
	variant string
	state   m.ExecutionState
}

// removeCorruptStates deletes every state file in dir that cannot be parsed,
// lacks a required key or holds an invalid value. A record must carry every
// input and output variable seen in the original's states. Records sharing a
// test id must agree on their inputs; otherwise the whole group is deleted.
func removeCorruptStates(env Env, u *UnitContext, dir m.Path) (corruptionReport, error) {
	var report corruptionReport

	names, err := env.FS.ListFiles(dir)
	if err != nil {
		return report, fmt.Errorf("failed to list states: %w", err)
	}

	groups := make(map[string][]loadedState)

	for _, name := range names {
		_, variant, _, ok := m.ParseStateFileName(name)
		if !ok {
			continue
		}

		path := env.FS.JoinPath(string(dir), name)

		state, err := env.States.LoadState(path)
		if err == nil {
			err = ValidateState(state)
		}

		if err != nil {
			u.Logger.Warn("Removing corrupt state", "file", name, "error", err)

			if err := env.FS.Remove(path); err != nil {
				return report, fmt.Errorf("failed to remove corrupt state: %w", err)
			}

			report.Removed = append(report.Removed, name)

			continue
		}

		groups[state.TestID] = append(groups[state.TestID], loadedState{file: name, variant: variant, state: state})
	}

	inputs, outputs := originalVariables(groups)

	testIDs := make([]string, 0, len(groups))
	for testID := range groups {
		testIDs = append(testIDs, testID)
	}

	sort.Strings(testIDs)

	for _, testID := range testIDs {
		group := make([]loadedState, 0, len(groups[testID]))

		for _, record := range groups[testID] {
			missing := missingVariables(record.state.Variables.Inputs, inputs)
			missing = append(missing, missingVariables(record.state.Variables.Outputs, outputs)...)

			if len(missing) == 0 {
				group = append(group, record)
				continue
			}

			u.Logger.Warn("Removing state with missing variables", "file", record.file, "missing", missing)

			if err := env.FS.Remove(env.FS.JoinPath(string(dir), record.file)); err != nil {
				return report, fmt.Errorf("failed to remove incomplete state: %w", err)
			}

			report.Removed = append(report.Removed, record.file)
		}

		if len(group) == 0 || consistentInputs(group) {
			continue
		}

		u.Logger.Warn("Removing states with inconsistent inputs", "test", testID, "records", len(group))

		for _, record := range group {
			if err := env.FS.Remove(env.FS.JoinPath(string(dir), record.file)); err != nil {
				return report, fmt.Errorf("failed to remove inconsistent state: %w", err)
			}

			report.Removed = append(report.Removed, record.file)
		}

		report.Conflicting = append(report.Conflicting, testID)
	}

	return report, nil
}

// originalVariables returns the input and output variable names found in
// any state of the original variant.
func originalVariables(groups map[string][]loadedState) (map[string]bool, map[string]bool) {
	inputs := make(map[string]bool)
	outputs := make(map[string]bool)

	for _, group := range groups {
		for _, record := range group {
			if record.variant != m.OriginalVariant {
				continue
			}

			for name := range record.state.Variables.Inputs {
				inputs[name] = true
			}

			for name := range record.state.Variables.Outputs {
				outputs[name] = true
			}
		}
	}

	return inputs, outputs
}

func missingVariables(vars map[string]any, want map[string]bool) []string {
	var missing []string

	for name := range want {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}

	sort.Strings(missing)

	return missing
}

func consistentInputs(group []loadedState) bool {
	for _, record := range group[1:] {
		if !reflect.DeepEqual(group[0].state.Variables.Inputs, record.state.Variables.Inputs) {
			return false
		}
	}

	return true
}
