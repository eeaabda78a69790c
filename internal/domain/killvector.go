package domain

import (
	"errors"
	"fmt"

	"mreval.dev/pkg/mreval/pkg/ratio"
)

// ErrInconsistentMutantCount is returned when kill vectors of different
// lengths are combined.
var ErrInconsistentMutantCount = errors.New("inconsistent mutant count")

// KillVector records, per mutant in mutant-id order, whether a check killed it.
type KillVector []bool

// Killed returns the number of killed mutants.
func (v KillVector) Killed() int {
	killed := 0

	for _, k := range v {
		if k {
			killed++
		}
	}

	return killed
}

// MergeOr ORs vectors index by index into a vector of mutants entries.
// Without vectors the result is all false. Every vector must be mutants
// entries long.
func MergeOr(mutants int, vectors ...KillVector) (KillVector, error) {
	merged := make(KillVector, mutants)

	for _, vector := range vectors {
		if len(vector) != mutants {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrInconsistentMutantCount, mutants, len(vector))
		}

		for i, killed := range vector {
			merged[i] = merged[i] || killed
		}
	}

	return merged, nil
}

// Run is one check execution: its kill vector and whether it failed on the
// original program.
type Run struct {
	Kills         KillVector
	FalsePositive bool
}

// Merged is the combination of several runs.
type Merged struct {
	Kills KillVector
	MS    ratio.Number
	FP    ratio.Number
}

// MergeRuns OR-merges runs. False-positive runs contribute nothing to the
// kill vector and count as 1/1 in the FP ratio, other runs as 0/1.
func MergeRuns(mutants int, runs []Run) (Merged, error) {
	vectors := make([]KillVector, 0, len(runs))
	fp := ratio.Zero

	for _, run := range runs {
		if run.FalsePositive {
			fp = fp.Add(ratio.New(1, 1))
			continue
		}

		fp = fp.Add(ratio.New(0, 1))
		vectors = append(vectors, run.Kills)
	}

	kills, err := MergeOr(mutants, vectors...)
	if err != nil {
		return Merged{}, err
	}

	return Merged{Kills: kills, MS: MutationScore(kills), FP: fp}, nil
}

// MutationScore is killed/len(v); an empty vector has no mutants and scores
// 0/0.
func MutationScore(v KillVector) ratio.Number {
	return ratio.New(v.Killed(), len(v))
}
