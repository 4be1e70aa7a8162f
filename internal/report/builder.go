// Package report gathers an organization's users and their assignments into
// flat report rows.
package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"secureflag-tools/internal/domain"
	"secureflag-tools/internal/secureflag"
)

type AssignmentLister interface {
	ListUserAssignments(ctx context.Context, email string) ([]secureflag.Assignment, error)
}

// API is everything the report needs from the management API.
type API interface {
	UserPager
	AssignmentLister
	TitleLookup
}

type Builder struct {
	API       API
	Titles    *TitleResolver
	StartPage int
	Log       *zap.Logger
}

func NewBuilder(api API, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		API:    api,
		Titles: NewTitleResolver(api, log),
		Log:    log,
	}
}

// FetchAssignments returns the user's assignments; failures are logged and
// treated as "no assignments".
func (b *Builder) FetchAssignments(ctx context.Context, email string) []domain.AssignmentRecord {
	list, err := b.API.ListUserAssignments(ctx, email)
	if err != nil {
		b.Log.Warn("failed to fetch assignments", zap.String("email", email), zap.Error(err))
		return nil
	}

	out := make([]domain.AssignmentRecord, 0, len(list))
	for _, a := range list {
		out = append(out, domain.AssignmentRecord{
			DueDate:       a.Expire,
			AssignedDate:  a.Assigned,
			CompletedDate: a.Completed,
			Status:        a.Status,
			Type:          a.Type,
			UUID:          a.UUID,
		})
	}
	return out
}

// Build walks every user of orgID and returns one row per assignment.
func (b *Builder) Build(ctx context.Context, orgID string) []domain.ReportRow {
	b.Log.Info("fetching user details")
	users := FetchAllUsers(ctx, b.API, orgID, b.StartPage, b.Log)
	b.Log.Info("fetched users", zap.Int("count", len(users)))

	var rows []domain.ReportRow
	for _, u := range users {
		for _, a := range b.FetchAssignments(ctx, u.Email) {
			rows = append(rows, domain.ReportRow{
				FirstName:     u.FirstName,
				LastName:      u.LastName,
				Email:         u.Email,
				JoinedDate:    FormatDate(u.JoinedDate),
				ActivityTitle: b.Titles.Title(ctx, a.Type, a.UUID),
				DueDate:       FormatDate(a.DueDate),
				AssignedDate:  FormatDate(a.AssignedDate),
				CompletedDate: FormatDate(a.CompletedDate),
				Status:        a.Status,
				Type:          a.Type,
			})
		}
	}
	return rows
}

// apiTimestampLayout also matches values carrying fractional seconds, so
// "...:05Z" and "...:05.123Z" both format.
const (
	apiTimestampLayout = "2006-01-02T15:04:05Z"
	reportDateLayout   = "02-01-2006"
)

// FormatDate renders API timestamps as DD-MM-YYYY. Values that do not parse
// are passed through unchanged.
func FormatDate(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(apiTimestampLayout, s)
	if err != nil {
		return s
	}
	return t.Format(reportDateLayout)
}
