// Package model defines the data structures shared by the mreval pipeline.
package model

// Path represents a file system path.
type Path string

// Subject is a class under evaluation together with its source file.
type Subject struct {
	Class   string   `mapstructure:"class" yaml:"class" validate:"required"`
	Source  Path     `mapstructure:"source" yaml:"source" validate:"required"`
	Methods []string `mapstructure:"methods" yaml:"methods,omitempty"`
}

// Unit is one (class, method, overload index) triple of a subject.
type Unit struct {
	ID      UnitID
	Class   string
	Method  string
	Index   int
	Source  Path
	Subject Subject
}

// NewUnit builds a Unit for subject method at overload index.
func NewUnit(subject Subject, method string, index int) (Unit, error) {
	id, err := MakeUnitID(subject.Class, method, index)
	if err != nil {
		return Unit{}, err
	}

	return Unit{
		ID:      id,
		Class:   subject.Class,
		Method:  method,
		Index:   index,
		Source:  subject.Source,
		Subject: subject,
	}, nil
}
