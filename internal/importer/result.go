package importer

import (
	"fmt"

	"course-import/internal/remap"
)

// Result describes a finished import.
type Result struct {
	CourseID    int64         `json:"course_id" yaml:"course_id"`
	CourseLabel string        `json:"course_label" yaml:"course_label"`
	CoursePath  string        `json:"course_path" yaml:"course_path"`
	Modules     int           `json:"modules" yaml:"modules"`
	Activities  int           `json:"activities" yaml:"activities"`
	Links       int           `json:"links" yaml:"links"`
	Remap       []remap.Entry `json:"remap" yaml:"remap"`
	Warnings    []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Notice      string        `json:"notice" yaml:"notice"`
}

// CoursePath is where an imported course is served.
func CoursePath(courseID int64) string {
	return fmt.Sprintf("/group/%d", courseID)
}

// SuccessNotice is shown to the user after a successful import.
func SuccessNotice(label string) string {
	return fmt.Sprintf("Imported course %s", label)
}
