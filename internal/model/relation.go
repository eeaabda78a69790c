package model

// Relation is one metamorphic relation produced by an experiment.
type Relation struct {
	Experiment string
	Name       string
	Dir        Path
}

// Key identifies the relation within a unit.
func (r Relation) Key() string {
	return r.Experiment + "/" + r.Name
}

// MRInfo links a source test to one of its follow-ups for a relation.
type MRInfo struct {
	MR       string
	Source   string
	Followup string
}

// SuiteEntry describes the executable test class built for a relation.
type SuiteEntry struct {
	Experiment string
	MR         string
	TestClass  string
	Tests      int
}
