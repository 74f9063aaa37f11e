package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory keeps every row in process. Each table has its own id sequence
// starting at 1.
type Memory struct {
	mu  sync.Mutex
	seq map[string]int64

	courses          []CourseRow
	modules          []ModuleRow
	groupContents    []GroupContentRow
	managedContents  []ManagedContentRow
	links            []ManagedLinkRow
	activities       []ActivityRow
	moduleActivities []ModuleActivityRow
	files            []FileRow
	media            []MediaRow
	h5pContents      []H5PContentRow
	libraries        []Library
	contentLibraries []ContentLibraryRow

	failures map[string]error
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{seq: map[string]int64{}, failures: map[string]error{}}
}

// FailOn makes every later call of op (a method name, e.g. "CreateActivity") return err.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

func (m *Memory) next(table string) int64 {
	m.seq[table]++
	return m.seq[table]
}

func (m *Memory) fail(op string) error {
	return m.failures[op]
}

func (m *Memory) CreateCourse(_ context.Context, row CourseRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateCourse"); err != nil {
		return 0, err
	}
	row.ID = m.next("courses")
	row.UUID = ensureUUID(row.UUID)
	m.courses = append(m.courses, row)
	return row.ID, nil
}

func (m *Memory) CreateModule(_ context.Context, row ModuleRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateModule"); err != nil {
		return 0, err
	}
	row.ID = m.next("modules")
	row.UUID = ensureUUID(row.UUID)
	m.modules = append(m.modules, row)
	return row.ID, nil
}

func (m *Memory) AddGroupContent(_ context.Context, row GroupContentRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("AddGroupContent"); err != nil {
		return 0, err
	}
	row.ID = m.next("group_content")
	row.UUID = ensureUUID(row.UUID)
	m.groupContents = append(m.groupContents, row)
	return row.ID, nil
}

func (m *Memory) CreateManagedContent(_ context.Context, row ManagedContentRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateManagedContent"); err != nil {
		return 0, err
	}
	row.ID = m.next("managed_content")
	row.UUID = ensureUUID(row.UUID)
	m.managedContents = append(m.managedContents, row)
	return row.ID, nil
}

func (m *Memory) CreateManagedLink(_ context.Context, row ManagedLinkRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateManagedLink"); err != nil {
		return 0, err
	}
	row.ID = m.next("managed_links")
	row.UUID = ensureUUID(row.UUID)
	if row.RequiredActivities != nil {
		v := *row.RequiredActivities
		row.RequiredActivities = &v
	}
	m.links = append(m.links, row)
	return row.ID, nil
}

func (m *Memory) CreateActivity(_ context.Context, row ActivityRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateActivity"); err != nil {
		return 0, err
	}
	row.ID = m.next("activities")
	row.UUID = ensureUUID(row.UUID)
	if row.Attachment != nil {
		a := *row.Attachment
		row.Attachment = &a
	}
	m.activities = append(m.activities, row)
	return row.ID, nil
}

func (m *Memory) AttachActivities(_ context.Context, moduleID int64, activityIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("AttachActivities"); err != nil {
		return err
	}
	weight := 0
	for _, ma := range m.moduleActivities {
		if ma.ModuleID == moduleID {
			weight++
		}
	}
	for _, id := range activityIDs {
		m.moduleActivities = append(m.moduleActivities, ModuleActivityRow{ModuleID: moduleID, ActivityID: id, Weight: weight})
		weight++
	}
	return nil
}

func (m *Memory) CreateFile(_ context.Context, row FileRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateFile"); err != nil {
		return 0, err
	}
	row.ID = m.next("files")
	row.UUID = ensureUUID(row.UUID)
	m.files = append(m.files, row)
	return row.ID, nil
}

func (m *Memory) CreateMedia(_ context.Context, row MediaRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateMedia"); err != nil {
		return 0, err
	}
	row.ID = m.next("media")
	row.UUID = ensureUUID(row.UUID)
	m.media = append(m.media, row)
	return row.ID, nil
}

func (m *Memory) CreateH5PContent(_ context.Context, row H5PContentRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateH5PContent"); err != nil {
		return 0, err
	}
	row.ID = m.next("h5p_content")
	row.UUID = ensureUUID(row.UUID)
	m.h5pContents = append(m.h5pContents, row)
	return row.ID, nil
}

// Versions returns the registered versions ordered by (major, minor, patch).
func (m *Memory) Versions(_ context.Context, machineName string) ([]Library, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Versions"); err != nil {
		return nil, err
	}
	var out []Library
	for _, lib := range m.libraries {
		if lib.MachineName == machineName {
			out = append(out, lib)
		}
	}
	sortLibraries(out)
	return out, nil
}

func (m *Memory) InsertLibrary(_ context.Context, lib Library) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("InsertLibrary"); err != nil {
		return 0, err
	}
	for _, have := range m.libraries {
		if have.MachineName == lib.MachineName && have.MajorVersion == lib.MajorVersion &&
			have.MinorVersion == lib.MinorVersion && have.PatchVersion == lib.PatchVersion {
			return 0, fmt.Errorf("library %s %d.%d.%d already registered", lib.MachineName, lib.MajorVersion, lib.MinorVersion, lib.PatchVersion)
		}
	}
	lib.ID = m.next("libraries")
	m.libraries = append(m.libraries, lib)
	return lib.ID, nil
}

func (m *Memory) LinkContentLibrary(_ context.Context, row ContentLibraryRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("LinkContentLibrary"); err != nil {
		return err
	}
	m.contentLibraries = append(m.contentLibraries, row)
	return nil
}

func (m *Memory) Close() error { return nil }

// Inspection accessors. Each returns a copy.

func (m *Memory) Courses() []CourseRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CourseRow(nil), m.courses...)
}

func (m *Memory) Modules() []ModuleRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModuleRow(nil), m.modules...)
}

func (m *Memory) GroupContents() []GroupContentRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GroupContentRow(nil), m.groupContents...)
}

func (m *Memory) ManagedContents() []ManagedContentRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ManagedContentRow(nil), m.managedContents...)
}

func (m *Memory) Links() []ManagedLinkRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ManagedLinkRow(nil), m.links...)
}

func (m *Memory) Activities() []ActivityRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ActivityRow(nil), m.activities...)
}

// ModuleActivities lists the activity ids of a module by weight.
func (m *Memory) ModuleActivities(moduleID int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []ModuleActivityRow
	for _, ma := range m.moduleActivities {
		if ma.ModuleID == moduleID {
			rows = append(rows, ma)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Weight < rows[j].Weight })
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ActivityID)
	}
	return out
}

func (m *Memory) Files() []FileRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FileRow(nil), m.files...)
}

func (m *Memory) Media() []MediaRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MediaRow(nil), m.media...)
}

func (m *Memory) H5PContents() []H5PContentRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]H5PContentRow(nil), m.h5pContents...)
}

func (m *Memory) Libraries() []Library {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Library(nil), m.libraries...)
}

func (m *Memory) ContentLibraries(contentID int64) []ContentLibraryRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ContentLibraryRow
	for _, r := range m.contentLibraries {
		if r.ContentID == contentID {
			out = append(out, r)
		}
	}
	return out
}

// EntityCount is the number of rows created in the course graph, not
// counting the shared library registry.
func (m *Memory) EntityCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.courses) + len(m.modules) + len(m.groupContents) + len(m.managedContents) +
		len(m.links) + len(m.activities) + len(m.files) + len(m.media) + len(m.h5pContents)
}

func sortLibraries(libs []Library) {
	sort.SliceStable(libs, func(i, j int) bool {
		a, b := libs[i], libs[j]
		if a.MajorVersion != b.MajorVersion {
			return a.MajorVersion < b.MajorVersion
		}
		if a.MinorVersion != b.MinorVersion {
			return a.MinorVersion < b.MinorVersion
		}
		return a.PatchVersion < b.PatchVersion
	})
}
