package importer

import (
	"context"
	"encoding/json"

	"course-import/internal/domain"
	"course-import/internal/importerr"
	"course-import/internal/remap"
	"course-import/internal/store"
)

// pendingLinks are the parent links of one placement, held back until
// every module and activity of the archive exists.
type pendingLinks struct {
	moduleID       string
	childContentID int64
	links          []domain.ParentLink
}

// rewriteParentLinks resolves every collected link against the remap
// table and creates it. Runs once, after all modules.
func (r *run) rewriteParentLinks(ctx context.Context) error {
	for _, p := range r.pending {
		for _, l := range p.links {
			row, err := r.linkRow(p, l)
			if err != nil {
				return err
			}
			id, err := r.im.store.CreateManagedLink(ctx, row)
			if err != nil {
				return importerr.New(importerr.StorageFailure, "create parent link of module "+p.moduleID, err)
			}
			r.links++
			r.log.Debug("Created parent link", "link", id, "parent", row.ParentContentID, "child", row.ChildContentID)
		}
	}
	return nil
}

func (r *run) linkRow(p pendingLinks, l domain.ParentLink) (store.ManagedLinkRow, error) {
	parent, err := r.remap.Resolve(remap.Link, l.ParentContentID.String())
	if err != nil {
		return store.ManagedLinkRow{}, err
	}
	required, err := r.requiredActivities(l.RequiredActivities)
	if err != nil {
		return store.ManagedLinkRow{}, err
	}
	return store.ManagedLinkRow{
		GroupID:            r.courseID,
		ParentContentID:    parent,
		ChildContentID:     p.childContentID,
		RequiredScore:      l.RequiredScore.Int(),
		RequiredActivities: required,
	}, nil
}

// requiredActivities rewrites each reference to the new activity id and
// encodes the list as a JSON string array. No references is NULL.
func (r *run) requiredActivities(refs []domain.RequiredActivity) (*string, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		newID, err := r.remap.Resolve(remap.Activity, ref.ActivityID)
		if err != nil {
			return nil, err
		}
		out = append(out, rewriteRef(ref, newID).String())
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func rewriteRef(ref domain.RequiredActivity, newID int64) domain.RequiredActivity {
	return domain.RequiredActivity{ActivityID: formatID(newID), Suffix: ref.Suffix}
}
