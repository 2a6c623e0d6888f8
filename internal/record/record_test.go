package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSetNotifiesOnlyOnChange(t *testing.T) {
	rec := New(Attributes{"name": "ada", "empty": nil})
	var changes []Change
	rec.Subscribe("name", func(c Change) { changes = append(changes, c) })

	assert.False(t, rec.Set("name", "ada"))
	assert.True(t, rec.Set("name", "grace"))
	assert.False(t, rec.Set("missing", nil))

	require.Len(t, changes, 1)
	assert.Equal(t, Change{Attribute: "name", Value: "grace", Old: "ada"}, changes[0])
	_, defined := rec.Lookup("empty")
	assert.False(t, defined)
}

func TestRecordSetNilUndefines(t *testing.T) {
	rec := New(Attributes{"age": 3})
	var seen []Change
	rec.Subscribe(AnyAttribute, func(c Change) { seen = append(seen, c) })

	require.True(t, rec.Set("age", nil))

	_, defined := rec.Lookup("age")
	assert.False(t, defined)
	require.Len(t, seen, 1)
	assert.Equal(t, 3, seen[0].Old)
}

func TestRecordSilentSetSkipsSubscribers(t *testing.T) {
	rec := New(nil)
	calls := 0
	rec.Subscribe("a", func(Change) { calls++ })

	assert.True(t, rec.Set("a", 1, SetOptions{Silent: true}))
	assert.Zero(t, calls)
	assert.Equal(t, 1, rec.Get("a"))
}

func TestRecordComparesStructurally(t *testing.T) {
	rec := New(Attributes{"tags": []string{"a", "b"}})
	assert.False(t, rec.Set("tags", []string{"a", "b"}))
	assert.True(t, rec.Set("tags", []string{"a"}))
}

func TestRecordSetAllReportsChangedNames(t *testing.T) {
	rec := New(Attributes{"a": 1, "b": 2})
	changed := rec.SetAll(Attributes{"a": 1, "b": 3, "c": 4})
	assert.Equal(t, []string{"b", "c"}, changed)
}

func TestAttributesMergeDropsNil(t *testing.T) {
	base := Attributes{"a": 1, "b": 2}
	merged := base.Merge(Attributes{"b": nil, "c": 3})
	assert.Equal(t, Attributes{"a": 1, "c": 3}, merged)
	assert.Equal(t, Attributes{"a": 1, "b": 2}, base)
}

type recordingValidator struct {
	snapshots []Attributes
	model     *Model
	seen      []any
}

func (v *recordingValidator) Validate(snapshot Attributes) []string {
	v.snapshots = append(v.snapshots, snapshot)
	v.seen = append(v.seen, v.model.Get("name"))
	return snapshot.Names()
}

func TestModelValidatesBeforeApplying(t *testing.T) {
	model := NewModel(Attributes{"name": "ada", "age": 36})
	v := &recordingValidator{model: model}
	model.Attach(v)

	changed := model.Update(Attributes{"name": "grace"})

	assert.Equal(t, []string{"name"}, changed)
	require.Len(t, v.snapshots, 1)
	assert.Equal(t, Attributes{"name": "grace", "age": 36}, v.snapshots[0])
	assert.Equal(t, []any{"ada"}, v.seen)
	assert.Equal(t, "grace", model.Get("name"))
}

func TestModelUpdateWithoutChangesIsNoop(t *testing.T) {
	model := NewModel(nil)
	v := &recordingValidator{model: model}
	model.Attach(v)
	assert.Nil(t, model.Update(nil))
	assert.Empty(t, v.snapshots)
}
