package activity

import (
	"context"

	"course-import/internal/domain"
	"course-import/internal/mappers"
)

// scalarFields covers activities made only of text fields.
type scalarFields struct {
	deps             Deps
	allowedExtension bool
}

func (m scalarFields) Materialize(ctx context.Context, a domain.Activity) (int64, error) {
	row := mappers.ActivityToRow(a)
	if body, ok := a.Body.Text(); ok {
		row.Body, row.BodyFormat = body.Value, body.Format
	}
	row.EvaluationMethod = a.EvaluationMethod.Int()
	if m.allowedExtension {
		row.AllowedExtension = a.AllowedExtension.Value()
	}
	return create(ctx, m.deps, row)
}
