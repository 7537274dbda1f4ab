// Package transformer defines the record-level transform contract and the
// ordered runner used by the cleaning stages.
package transformer

import (
	"log"
	"time"

	"abprep/pkg/records"
)

// Transformer maps a batch of records to a new batch. Implementations may
// filter in place by reslicing and may mutate record maps.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}

// Step is a named transformer inside a Steps run.
type Step struct {
	Name string
	T    Transformer
}

// StepStat reports what one step did to the batch.
type StepStat struct {
	Name    string
	In      int
	Out     int
	Elapsed time.Duration
}

// Dropped is the number of records the step removed.
func (s StepStat) Dropped() int { return s.In - s.Out }

// Steps is a Chain whose members are named, so every step's row counts can be
// logged and reported.
type Steps []Step

// Run applies each step in order and returns the final batch together with
// one StepStat per step. Each step is logged as "transform: <name> in=.. out=..".
func (s Steps) Run(in []records.Record) ([]records.Record, []StepStat) {
	stats := make([]StepStat, 0, len(s))
	out := in
	for _, st := range s {
		start := time.Now()
		before := len(out)
		out = st.T.Apply(out)
		ss := StepStat{Name: st.Name, In: before, Out: len(out), Elapsed: time.Since(start)}
		stats = append(stats, ss)
		log.Printf("transform: %s in=%d out=%d dropped=%d elapsed=%s", ss.Name, ss.In, ss.Out, ss.Dropped(), ss.Elapsed)
	}
	return out, stats
}

// Chain returns the unnamed transformers in order.
func (s Steps) Chain() Chain {
	c := make(Chain, len(s))
	for i, st := range s {
		c[i] = st.T
	}
	return c
}
