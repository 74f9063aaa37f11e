package mappers

import (
	"course-import/internal/domain"
	"course-import/internal/store"
)

func CourseToRow(c domain.Course) store.CourseRow {
	row := store.CourseRow{
		Langcode:         c.Langcode.String(),
		Label:            c.Label.Value(),
		BadgeActive:      c.BadgeActive.Bool(),
		BadgeCriteria:    c.BadgeCriteria.Value(),
		GuidedNavigation: c.GuidedNavigation.Bool(),
	}
	// Badge texts of an inactive badge are ignored.
	if row.BadgeActive {
		row.BadgeName = c.BadgeName.Value()
		row.BadgeDescription = c.BadgeDescription.Value()
	}
	if desc, ok := c.Description.Text(); ok {
		row.Description, row.DescriptionFormat = desc.Value, desc.Format
	}
	return row
}

func ModuleToRow(m domain.Module) store.ModuleRow {
	row := store.ModuleRow{
		Langcode:            m.Langcode.String(),
		Name:                m.Name.Value(),
		Status:              m.Status.Bool(),
		RandomActivityScore: m.RandomActivityScore.Int(),
		AllowResume:         m.AllowResume.Bool(),
		BackwardsNavigation: m.BackwardsNavigation.Bool(),
		Randomization:       m.Randomization.Int(),
		RandomActivities:    m.RandomActivities.Int(),
		Takes:               m.Takes.Int(),
		ShowAttemptStats:    m.ShowAttemptStats.Bool(),
		KeepResults:         m.KeepResults.Int(),
		HideResults:         m.HideResults.Bool(),
		BadgeActive:         m.BadgeActive.Bool(),
		BadgeCriteria:       m.BadgeCriteria.Value(),
	}
	if row.BadgeActive {
		row.BadgeName = m.BadgeName.Value()
		row.BadgeDescription = m.BadgeDescription.Value()
	}
	if desc, ok := m.Description.Text(); ok {
		row.Description, row.DescriptionFormat = desc.Value, desc.Format
	}
	return row
}

// ManagedContentToRow places moduleID in courseID.
func ManagedContentToRow(mc domain.ManagedContent, courseID, moduleID int64) store.ManagedContentRow {
	return store.ManagedContentRow{
		GroupID:         courseID,
		ContentTypeID:   mc.GroupContentTypeID.String(),
		EntityID:        moduleID,
		SuccessScoreMin: mc.SuccessScoreMin.Int(),
		IsMandatory:     mc.IsMandatory.Bool(),
		CoordinateX:     mc.CoordinateX.Int(),
		CoordinateY:     mc.CoordinateY.Int(),
	}
}

// ActivityToRow copies the fields every activity type shares.
func ActivityToRow(a domain.Activity) store.ActivityRow {
	return store.ActivityRow{
		Type:     string(a.Tag()),
		Name:     a.Name.Value(),
		Langcode: a.Langcode.String(),
		Status:   a.Status.Bool(),
	}
}
