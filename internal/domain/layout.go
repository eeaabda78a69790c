package domain

import (
	"path/filepath"

	m "mreval.dev/pkg/mreval/internal/model"
)

// File names inside stage artifacts.
const (
	MRInfoFile        = "MRInfo.csv"
	MRStatusFile      = "mrs_status.csv"
	MutantsKilledFile = "mutants_killed.csv"
	MutationsFile     = "mutations.csv"
	FailuresFile      = "failures.csv"
	SuiteFile         = "suite.csv"
	TimeoutMarker     = "TIMEOUT"
	InputRelation     = "input"
	OutputRelation    = "output"
	engineLogFile     = "mutants.log"
)

// Layout builds artifact paths below an output root.
type Layout struct {
	Root m.Path
}

// NewLayout returns the Layout rooted at root.
func NewLayout(root m.Path) Layout {
	return Layout{Root: root}
}

func (l Layout) join(elem ...string) m.Path {
	return m.Path(filepath.Join(append([]string{string(l.Root)}, elem...)...))
}

// MutantsDir holds one directory per mutant id of class.
func (l Layout) MutantsDir(class string) m.Path {
	return l.join("mutants", class)
}

// MutantsLog is the mutation engine log of class.
func (l Layout) MutantsLog(class string) m.Path {
	return l.join("mutants", class+".log")
}

// MutantSource is the rewritten source of mutant id.
func (l Layout) MutantSource(class, id string, source m.Path) m.Path {
	return l.join("mutants", class, id, filepath.Base(string(source)))
}

func (l Layout) TestInputsDir(unit m.UnitID) m.Path {
	return l.join("test-inputs", string(unit))
}

func (l Layout) StatesDir(unit m.UnitID) m.Path {
	return l.join("states", string(unit))
}

func (l Layout) ClassificationsDir(unit m.UnitID) m.Path {
	return l.join("classifications", string(unit))
}

func (l Layout) RelationsDir(unit m.UnitID) m.Path {
	return l.join("relations", string(unit))
}

func (l Layout) RelationDir(unit m.UnitID, experiment, mr string) m.Path {
	return l.join("relations", string(unit), experiment, mr)
}

func (l Layout) FollowupsDir(unit m.UnitID) m.Path {
	return l.join("followups", string(unit))
}

func (l Layout) FollowupDir(unit m.UnitID, experiment, mr string) m.Path {
	return l.join("followups", string(unit), experiment, mr)
}

// MRInfo is written last by the follow-up stage.
func (l Layout) MRInfo(unit m.UnitID) m.Path {
	return l.join("followups", string(unit), MRInfoFile)
}

func (l Layout) MutationDir(unit m.UnitID) m.Path {
	return l.join("mutation", string(unit))
}

func (l Layout) SuiteDir(unit m.UnitID) m.Path {
	return l.join("mutation", string(unit), "suite")
}

func (l Layout) BaselineDir(unit m.UnitID) m.Path {
	return l.join("mutation", string(unit), "baseline")
}

func (l Layout) ReportDir(unit m.UnitID, experiment, mr string) m.Path {
	return l.join("mutation", string(unit), "reports", experiment, mr)
}

// MRStatus is the final artifact of a unit.
func (l Layout) MRStatus(unit m.UnitID) m.Path {
	return l.join("mutation", string(unit), MRStatusFile)
}

func (l Layout) MutantsKilled(unit m.UnitID) m.Path {
	return l.join("mutation", string(unit), MutantsKilledFile)
}
