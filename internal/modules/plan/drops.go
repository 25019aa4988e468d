package plan

import "fmt"

// DropKind names the part of an intent a drop came from
type DropKind string

const (
	DropDataset DropKind = "dataset"
	DropIntent  DropKind = "intent"
	DropTicker  DropKind = "ticker"
	DropMetric  DropKind = "metric"
	DropInclude DropKind = "include"
	DropFilter  DropKind = "filter"
	DropSort    DropKind = "sort"
	DropLimit   DropKind = "limit"
	DropFlag    DropKind = "flag"
)

// Drop records a piece of input that was omitted or replaced during compilation.
// Drops are diagnostics, never errors.
type Drop struct {
	Kind   DropKind `json:"kind"`
	Value  string   `json:"value"`
	Reason string   `json:"reason"`
}

func (d Drop) String() string {
	return fmt.Sprintf("%s %q: %s", d.Kind, d.Value, d.Reason)
}
