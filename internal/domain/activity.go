package domain

import (
	"encoding/json"
	"fmt"
)

// ActivityType is the bundle tag of an exported activity.
type ActivityType string

const (
	LongAnswer  ActivityType = "opigno_long_answer"
	FileUpload  ActivityType = "opigno_file_upload"
	Scorm       ActivityType = "opigno_scorm"
	TinCan      ActivityType = "opigno_tincan"
	Slide       ActivityType = "opigno_slide"
	Video       ActivityType = "opigno_video"
	Interactive ActivityType = "opigno_h5p"
)

// ActivityTypes lists every tag the importer knows how to materialize.
var ActivityTypes = []ActivityType{LongAnswer, FileUpload, Scorm, TinCan, Slide, Video, Interactive}

func (t ActivityType) Known() bool {
	for _, k := range ActivityTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Activity is one activity document.
type Activity struct {
	ID               Field     `json:"id"`
	Type             Field     `json:"type"`
	Name             Field     `json:"name"`
	Langcode         Field     `json:"langcode"`
	Status           Field     `json:"status"`
	Body             Field     `json:"opigno_body"`
	EvaluationMethod Field     `json:"opigno_evaluation_method"`
	AllowedExtension Field     `json:"opigno_allowed_extension"`
	H5P              Field     `json:"opigno_h5p"`
	Files            FileBlobs `json:"files"`
}

func (a Activity) ArchiveID() string { return a.ID.String() }

// Tag is the activity bundle, stored as the type field's target id.
func (a Activity) Tag() ActivityType {
	return ActivityType(a.Type.First().TargetID.String())
}

// H5PContentID is the original interactive content id, which names the
// sibling package file inside the archive.
func (a Activity) H5PContentID() string {
	return a.H5P.First().H5PContentID.String()
}

// FileBlob is a file shipped inside the archive for an activity.
type FileBlob struct {
	// Path is the archive-relative location of the blob.
	Path     string `json:"-"`
	FileName string `json:"file_name"`
	Status   Scalar `json:"status"`
	Bundle   string `json:"bundle"`
}

// FileBlobs keeps the document order of the exported files map.
type FileBlobs []FileBlob

func (fb *FileBlobs) UnmarshalJSON(b []byte) error {
	var out []FileBlob
	err := eachMember(b, func(key string, raw json.RawMessage) error {
		var blob FileBlob
		if err := json.Unmarshal(raw, &blob); err != nil {
			return fmt.Errorf("file %q: %w", key, err)
		}
		blob.Path = key
		out = append(out, blob)
		return nil
	})
	if err != nil {
		return err
	}
	*fb = out
	return nil
}

// DecodeActivity decodes an exported activity document.
func DecodeActivity(data []byte) (Activity, error) {
	var a Activity
	if err := decodeEntity(data, &a); err != nil {
		return Activity{}, fmt.Errorf("activity: %w", err)
	}
	if a.ArchiveID() == "" {
		return Activity{}, fmt.Errorf("activity: missing id")
	}
	if a.Tag() == "" {
		return Activity{}, fmt.Errorf("activity %s: missing type", a.ArchiveID())
	}
	return a, nil
}
