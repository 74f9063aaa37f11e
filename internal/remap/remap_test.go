package remap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-import/internal/importerr"
)

func TestRecordAndResolve(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Record(Module, "3", 101))

	id, err := tbl.Resolve(Module, "3")
	require.NoError(t, err)
	assert.Equal(t, int64(101), id)
}

func TestNamespacesAreSeparate(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Record(Module, "7", 1))
	require.NoError(t, tbl.Record(Activity, "7", 2))
	require.NoError(t, tbl.Record(Link, "7", 3))

	m, _ := tbl.Resolve(Module, "7")
	a, _ := tbl.Resolve(Activity, "7")
	l, _ := tbl.Resolve(Link, "7")
	assert.Equal(t, []int64{1, 2, 3}, []int64{m, a, l})

	_, err := tbl.Resolve(Course, "7")
	assert.ErrorIs(t, err, importerr.UnresolvedReference)
}

func TestDuplicateRecordFails(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Record(Activity, "5", 10))

	err := tbl.Record(Activity, "5", 11)
	require.Error(t, err)
	assert.ErrorIs(t, err, importerr.MalformedArchive)

	id, _ := tbl.Resolve(Activity, "5")
	assert.Equal(t, int64(10), id, "first mapping must survive")
	assert.Equal(t, 1, tbl.Len())
}

func TestResolveUnknown(t *testing.T) {
	_, err := New().Resolve(Link, "99")
	assert.ErrorIs(t, err, importerr.UnresolvedReference)
}

func TestSnapshotOrder(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Record(Activity, "b", 9))
	require.NoError(t, tbl.Record(Course, "1", 4))
	require.NoError(t, tbl.Record(Activity, "a", 8))
	require.NoError(t, tbl.Record(Module, "m", 5))

	assert.Equal(t, []Entry{
		{Kind: Course, ArchiveID: "1", NewID: 4},
		{Kind: Module, ArchiveID: "m", NewID: 5},
		{Kind: Activity, ArchiveID: "a", NewID: 8},
		{Kind: Activity, ArchiveID: "b", NewID: 9},
	}, tbl.Snapshot())
}

func TestEntryJSONUsesKindNames(t *testing.T) {
	data, err := json.Marshal(Entry{Kind: Activity, ArchiveID: "5", NewID: 42})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind": "activity", "archive_id": "5", "new_id": 42}`, string(data))

	var got Entry
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, Activity, got.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind": "quiz"}`), &got))
	_, err = json.Marshal(Entry{Kind: Kind(9)})
	assert.Error(t, err)
}
