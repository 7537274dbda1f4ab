package transformer

import (
	"reflect"
	"sync/atomic"
	"testing"

	"abprep/pkg/records"
)

/*
addFieldTransformer mutates each record in place by setting key -> value.
Used to verify mutation flows through Chain.
*/
type addFieldTransformer struct {
	key string
	val any
}

func (t addFieldTransformer) Apply(in []records.Record) []records.Record {
	for i := range in {
		in[i][t.key] = t.val
	}
	return in
}

/*
filterRequireTransformer keeps only records that have a non-nil value for the
provided key; it filters in place by reslicing the input.
*/
type filterRequireTransformer struct {
	key string
}

func (t filterRequireTransformer) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, r := range in {
		if v, ok := r[t.key]; ok && v != nil {
			out = append(out, r)
		}
	}
	return out
}

type counterTransformer struct {
	calls *int32
}

func (t counterTransformer) Apply(in []records.Record) []records.Record {
	atomic.AddInt32(t.calls, 1)
	return in
}

/*
TestChainApply_Composition_Order verifies that Chain.Apply passes the output of
each transformer as the input to the next.
*/
func TestChainApply_Composition_Order(t *testing.T) {
	in := []records.Record{{"id": 1}}
	c := Chain{
		addFieldTransformer{key: "a", val: "first"},
		addFieldTransformer{key: "b", val: "second"},
	}
	out := c.Apply(in)

	want := records.Record{"id": 1, "a": "first", "b": "second"}
	if !reflect.DeepEqual(out[0], want) {
		t.Fatalf("composition mismatch:\n got: %#v\nwant: %#v", out[0], want)
	}
}

/*
TestChainApply_NilChain verifies that a nil Chain returns the input slice.
*/
func TestChainApply_NilChain(t *testing.T) {
	in := []records.Record{{"id": 1}, {"id": 2}}
	var c Chain
	out := c.Apply(in)
	if len(out) != len(in) || &out[0] != &in[0] {
		t.Fatalf("nil chain should return same slice header")
	}
}

/*
TestStepsRun_Stats verifies that Steps.Run reports per-step in/out counts in
order and that each transformer runs exactly once.
*/
func TestStepsRun_Stats(t *testing.T) {
	var calls int32
	in := []records.Record{
		{"keep": "yes"},
		{"keep": nil},
		{"keep": "yes"},
		{},
	}
	steps := Steps{
		{Name: "count", T: counterTransformer{calls: &calls}},
		{Name: "require_keep", T: filterRequireTransformer{key: "keep"}},
		{Name: "tag", T: addFieldTransformer{key: "tag", val: "ok"}},
	}

	out, stats := steps.Run(in)
	if len(out) != 2 {
		t.Fatalf("len(out)=%d; want 2", len(out))
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("counter called %d times; want 1", calls)
	}
	want := []struct {
		name    string
		in, out int
	}{
		{"count", 4, 4},
		{"require_keep", 4, 2},
		{"tag", 2, 2},
	}
	if len(stats) != len(want) {
		t.Fatalf("len(stats)=%d; want %d", len(stats), len(want))
	}
	for i, w := range want {
		if stats[i].Name != w.name || stats[i].In != w.in || stats[i].Out != w.out {
			t.Fatalf("stats[%d]=%+v; want %+v", i, stats[i], w)
		}
	}
	if stats[1].Dropped() != 2 {
		t.Fatalf("Dropped()=%d; want 2", stats[1].Dropped())
	}
	for _, r := range out {
		if r["tag"] != "ok" {
			t.Fatalf("tag missing on %#v", r)
		}
	}
}

/*
TestStepsChain verifies that Steps.Chain preserves order and applies the same
transformers.
*/
func TestStepsChain(t *testing.T) {
	steps := Steps{
		{Name: "a", T: addFieldTransformer{key: "a", val: 1}},
		{Name: "b", T: addFieldTransformer{key: "b", val: 2}},
	}
	c := steps.Chain()
	if len(c) != 2 {
		t.Fatalf("len(chain)=%d; want 2", len(c))
	}
	out := c.Apply([]records.Record{{}})
	if out[0]["a"] != 1 || out[0]["b"] != 2 {
		t.Fatalf("unexpected record %#v", out[0])
	}
}
