package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Course is the course document of a package, as exported.
type Course struct {
	ID               Field `json:"id"`
	Langcode         Field `json:"langcode"`
	Label            Field `json:"label"`
	BadgeActive      Field `json:"badge_active"`
	BadgeCriteria    Field `json:"badge_criteria"`
	BadgeName        Field `json:"badge_name"`
	BadgeDescription Field `json:"badge_description"`
	GuidedNavigation Field `json:"field_guided_navigation"`
	Description      Field `json:"field_course_description"`
}

// ArchiveID is the course id inside the package.
func (c Course) ArchiveID() string { return c.ID.String() }

// Module is one module document, including its placement in the course
// and the dependency edges pointing at it.
type Module struct {
	ID                  Field `json:"id"`
	Langcode            Field `json:"langcode"`
	Name                Field `json:"name"`
	Status              Field `json:"status"`
	RandomActivityScore Field `json:"random_activity_score"`
	AllowResume         Field `json:"allow_resume"`
	BackwardsNavigation Field `json:"backwards_navigation"`
	Randomization       Field `json:"randomization"`
	RandomActivities    Field `json:"random_activities"`
	Takes               Field `json:"takes"`
	ShowAttemptStats    Field `json:"show_attempt_stats"`
	KeepResults         Field `json:"keep_results"`
	HideResults         Field `json:"hide_results"`
	BadgeActive         Field `json:"badge_active"`
	BadgeCriteria       Field `json:"badge_criteria"`
	BadgeName           Field `json:"badge_name"`
	BadgeDescription    Field `json:"badge_description"`
	Description         Field `json:"description"`

	ManagedContent ManagedContent `json:"managed_content"`
	ParentLinks    ParentLinks    `json:"parent_links"`
}

func (m Module) ArchiveID() string { return m.ID.String() }

// ManagedContent places a module inside a course.
type ManagedContent struct {
	ID                 Field `json:"id"`
	GroupContentTypeID Field `json:"group_content_type_id"`
	SuccessScoreMin    Field `json:"success_score_min"`
	IsMandatory        Field `json:"is_mandatory"`
	CoordinateX        Field `json:"coordinate_x"`
	CoordinateY        Field `json:"coordinate_y"`
}

func (mc ManagedContent) ArchiveID() string { return mc.ID.String() }

// ParentLink declares that the owning placement requires the placement
// ParentContentID, optionally gated on specific activities.
type ParentLink struct {
	ParentContentID    Scalar             `json:"parent_content_id"`
	RequiredScore      Scalar             `json:"required_score"`
	RequiredActivities []RequiredActivity `json:"-"`
}

type parentLinkJSON struct {
	ParentContentID    Scalar          `json:"parent_content_id"`
	RequiredScore      Scalar          `json:"required_score"`
	RequiredActivities json.RawMessage `json:"required_activities"`
}

func (p *ParentLink) UnmarshalJSON(b []byte) error {
	var raw parentLinkJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.ParentContentID = raw.ParentContentID
	p.RequiredScore = raw.RequiredScore
	p.RequiredActivities = nil

	refs, err := decodeRefList(raw.RequiredActivities)
	if err != nil {
		return fmt.Errorf("required_activities: %w", err)
	}
	for _, s := range refs {
		ra, err := ParseRequiredActivity(s)
		if err != nil {
			return err
		}
		p.RequiredActivities = append(p.RequiredActivities, ra)
	}
	return nil
}

// decodeRefList accepts a list, a keyed object, or any falsy value.
func decodeRefList(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	switch trimmed {
	case "", "null", "false", `""`, "0", "{}", "[]":
		return nil, nil
	}
	var list []Scalar
	if trimmed[0] == '{' {
		err := eachMember(raw, func(_ string, v json.RawMessage) error {
			var s Scalar
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			list = append(list, s)
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s.String() != "" {
			out = append(out, s.String())
		}
	}
	return out, nil
}

// ParentLinks tolerates the empty-object form of an empty list.
type ParentLinks []ParentLink

func (pl *ParentLinks) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" || trimmed == "" {
		*pl = nil
		return nil
	}
	if trimmed[0] == '{' {
		var out []ParentLink
		err := eachMember(b, func(_ string, raw json.RawMessage) error {
			var l ParentLink
			if err := json.Unmarshal(raw, &l); err != nil {
				return err
			}
			out = append(out, l)
			return nil
		})
		*pl = out
		return err
	}
	var out []ParentLink
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*pl = out
	return nil
}

// RequiredActivity is a parsed "<activity-id>-<suffix>" reference.
type RequiredActivity struct {
	ActivityID string
	Suffix     string
}

// ParseRequiredActivity splits on the first '-'. The suffix may be empty.
func ParseRequiredActivity(s string) (RequiredActivity, error) {
	s = strings.TrimSpace(s)
	id, suffix, _ := strings.Cut(s, "-")
	if id == "" {
		return RequiredActivity{}, fmt.Errorf("domain: bad required activity reference %q", s)
	}
	return RequiredActivity{ActivityID: id, Suffix: suffix}, nil
}

func (r RequiredActivity) String() string {
	if r.Suffix == "" {
		return r.ActivityID
	}
	return r.ActivityID + "-" + r.Suffix
}

// DecodeCourse decodes an exported course document.
func DecodeCourse(data []byte) (Course, error) {
	var c Course
	if err := decodeEntity(data, &c); err != nil {
		return Course{}, fmt.Errorf("course: %w", err)
	}
	if c.ArchiveID() == "" {
		return Course{}, fmt.Errorf("course: missing id")
	}
	return c, nil
}

// DecodeModule decodes an exported module document.
func DecodeModule(data []byte) (Module, error) {
	var m Module
	if err := decodeEntity(data, &m); err != nil {
		return Module{}, fmt.Errorf("module: %w", err)
	}
	if m.ArchiveID() == "" {
		return Module{}, fmt.Errorf("module: missing id")
	}
	if m.ManagedContent.ArchiveID() == "" {
		return Module{}, fmt.Errorf("module %s: missing managed_content id", m.ArchiveID())
	}
	return m, nil
}

func decodeEntity(data []byte, v any) error {
	raw, err := firstMember(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
