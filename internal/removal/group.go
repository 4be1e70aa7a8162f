package removal

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"secureflag-tools/internal/domain"
	"secureflag-tools/internal/secureflag"
)

// UserRemoval holds the de-duplicated activities to remove for one user.
type UserRemoval struct {
	User  string
	Labs  mapset.Set[string]
	Paths mapset.Set[string]
}

func (u UserRemoval) Empty() bool {
	return u.Labs.Cardinality() == 0 && u.Paths.Cardinality() == 0
}

// Request builds the API payload. UUIDs are sorted so the payload is stable
// across runs; empty lists stay nil and are dropped by omitempty.
func (u UserRemoval) Request() secureflag.RemoveAssignmentsRequest {
	return secureflag.RemoveAssignmentsRequest{
		Users:         []string{u.User},
		AssignedLabs:  sorted(u.Labs),
		AssignedPaths: sorted(u.Paths),
	}
}

func sorted(s mapset.Set[string]) []string {
	if s.Cardinality() == 0 {
		return nil
	}
	out := s.ToSlice()
	sort.Strings(out)
	return out
}

// NoActivitiesError is returned when a user ends up with nothing to remove.
type NoActivitiesError struct {
	User string
}

func (e *NoActivitiesError) Error() string {
	return fmt.Sprintf("user %s has no Labs or Paths after deduplication", e.User)
}

// Group collects resolved rows per user in order of first appearance.
func Group(rows []domain.AssignmentRow) ([]UserRemoval, error) {
	var order []string
	byUser := make(map[string]*UserRemoval)

	for _, r := range rows {
		u, ok := byUser[r.User]
		if !ok {
			u = &UserRemoval{
				User:  r.User,
				Labs:  mapset.NewThreadUnsafeSet[string](),
				Paths: mapset.NewThreadUnsafeSet[string](),
			}
			byUser[r.User] = u
			order = append(order, r.User)
		}
		if r.UUID == "" {
			continue
		}
		switch domain.ActivityType(r.Type) {
		case domain.ActivityLab:
			u.Labs.Add(r.UUID)
		case domain.ActivityPath:
			u.Paths.Add(r.UUID)
		}
	}

	out := make([]UserRemoval, 0, len(order))
	for _, name := range order {
		u := byUser[name]
		if u.Empty() {
			return nil, &NoActivitiesError{User: name}
		}
		out = append(out, *u)
	}
	return out, nil
}
