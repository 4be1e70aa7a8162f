// Package resolve validates assignment rows against the catalogs and fills in
// missing UUIDs. Validation is side-effect free: every row is checked and all
// problems are returned together so the caller can refuse to act on a batch
// that is not entirely clean.
package resolve

import (
	"fmt"

	"go.uber.org/zap"

	"secureflag-tools/internal/catalog"
	"secureflag-tools/internal/domain"
)

// RowError is a preflight failure for a single input row.
type RowError struct {
	User   string
	UUID   string
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("User: %s, UUID: %s, Reason: %s", e.User, e.UUID, e.Reason)
}

type Resolver struct {
	Paths *catalog.Catalog
	Labs  *catalog.Catalog
	Log   *zap.Logger
}

func (r Resolver) catalogFor(t domain.ActivityType) *catalog.Catalog {
	if t == domain.ActivityPath {
		return r.Paths
	}
	return r.Labs
}

// Resolve returns a copy of rows with every UUID filled in, plus the list of
// row errors. The returned rows are only meaningful when errs is empty.
func (r Resolver) Resolve(rows []domain.AssignmentRow) (resolved []domain.AssignmentRow, errs []RowError) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	resolved = make([]domain.AssignmentRow, len(rows))
	copy(resolved, rows)

	for i := range resolved {
		row := &resolved[i]

		typ, ok := domain.ParseActivityType(row.Type)
		if !ok {
			errs = append(errs, RowError{User: row.User, UUID: row.UUID, Reason: "Invalid Type: " + row.Type})
			continue
		}
		cat := r.catalogFor(typ)

		if row.UUID != "" {
			if !cat.Contains(row.UUID) {
				errs = append(errs, RowError{User: row.User, UUID: row.UUID, Reason: "UUID not found in catalog"})
			}
			continue
		}

		uuids := cat.Lookup(row.Activity, row.Technology)
		switch {
		case len(uuids) == 0:
			errs = append(errs, RowError{User: row.User, Reason: fmt.Sprintf("No match for %s+%s", row.Activity, row.Technology)})
		case len(uuids) > 1:
			errs = append(errs, RowError{User: row.User, Reason: fmt.Sprintf("Multiple UUIDs for %s+%s", row.Activity, row.Technology)})
		default:
			row.UUID = uuids[0]
			log.Debug("resolved activity",
				zap.String("type", row.Type),
				zap.String("activity", row.Activity),
				zap.String("technology", row.Technology),
				zap.String("uuid", row.UUID),
			)
		}
	}
	return resolved, errs
}
