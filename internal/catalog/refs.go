package catalog

import (
	"context"
	"fmt"

	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
)

// Ref is one foreign reference carried by an input.
type Ref struct {
	Field string
	Table Table
	ID    int64
}

// Require checks refs in order and fails on the first one that is zero or
// does not resolve. The error names the offending field.
func Require(ctx context.Context, repo Repository, refs ...Ref) error {
	for _, ref := range refs {
		if ref.ID <= 0 {
			return pkgerrors.Required(ref.Field)
		}
		ok, err := repo.Exists(ctx, ref.Table, ref.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("check %s", ref.Field))
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s does not reference an existing record", ref.Field)).
				WithDetails(map[string]any{"field": ref.Field, "id": ref.ID})
		}
	}
	return nil
}
