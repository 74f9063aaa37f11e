package store

// CourseRow is a course group.
type CourseRow struct {
	ID                int64
	UUID              string
	Langcode          string
	Label             string
	BadgeActive       bool
	BadgeCriteria     string
	BadgeName         string
	BadgeDescription  string
	GuidedNavigation  bool
	Description       string
	DescriptionFormat string
}

type ModuleRow struct {
	ID                  int64
	UUID                string
	Langcode            string
	Name                string
	Status              bool
	RandomActivityScore int
	AllowResume         bool
	BackwardsNavigation bool
	Randomization       int
	RandomActivities    int
	Takes               int
	ShowAttemptStats    bool
	KeepResults         int
	HideResults         bool
	BadgeActive         bool
	BadgeCriteria       string
	BadgeName           string
	BadgeDescription    string
	Description         string
	DescriptionFormat   string
}

// GroupContentRow makes an entity a member of a course group.
type GroupContentRow struct {
	ID       int64
	UUID     string
	GroupID  int64
	EntityID int64
	PluginID string
}

// ManagedContentRow places an entity at a coordinate of a course's learning path.
type ManagedContentRow struct {
	ID              int64
	UUID            string
	GroupID         int64
	ContentTypeID   string
	EntityID        int64
	SuccessScoreMin int
	IsMandatory     bool
	CoordinateX     int
	CoordinateY     int
}

// ManagedLinkRow is a prerequisite edge between two placements.
// RequiredActivities is a JSON string array, nil when there are none.
type ManagedLinkRow struct {
	ID                 int64
	UUID               string
	GroupID            int64
	ParentContentID    int64
	ChildContentID     int64
	RequiredScore      int
	RequiredActivities *string
}

// Attachment points an activity field at a stored file or media record.
type Attachment struct {
	Field    string
	TargetID int64
	Display  bool
}

type ActivityRow struct {
	ID               int64
	UUID             string
	Type             string
	Name             string
	Langcode         string
	Status           bool
	Body             string
	BodyFormat       string
	EvaluationMethod int
	AllowedExtension string
	Attachment       *Attachment
	H5PContentID     int64
}

// ModuleActivityRow is one activity of a module, in insertion order.
type ModuleActivityRow struct {
	ModuleID   int64
	ActivityID int64
	Weight     int
}

type FileRow struct {
	ID       int64
	UUID     string
	OwnerID  int64
	Filename string
	URI      string
	Status   int
}

type MediaRow struct {
	ID      int64
	UUID    string
	Bundle  string
	Name    string
	FileID  int64
	OwnerID int64
}

type H5PContentRow struct {
	ID                 int64
	UUID               string
	LibraryID          int64
	Title              string
	Parameters         string
	FilteredParameters string
	DisabledFeatures   int
	Authors            string
	Changes            string
	License            string
}

// Library is a registered interactive-content library version.
type Library struct {
	ID           int64
	MachineName  string
	Title        string
	MajorVersion int
	MinorVersion int
	PatchVersion int
	Runnable     bool
	EmbedTypes   string
	PreloadedJS  string
	PreloadedCSS string
}

type ContentLibraryRow struct {
	ContentID      int64
	LibraryID      int64
	DependencyType string
	DropCSS        bool
	Weight         int
}
