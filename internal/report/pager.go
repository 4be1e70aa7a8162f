package report

import (
	"context"

	"go.uber.org/zap"

	"secureflag-tools/internal/domain"
	"secureflag-tools/internal/httpx"
	"secureflag-tools/internal/secureflag"
)

type UserPager interface {
	ListUsersPage(ctx context.Context, orgID string, page int) ([]secureflag.User, error)
}

// FetchAllUsers requests pages starting at startPage until a page comes back
// with zero users. Short pages do not end pagination. A failed page stops
// paging and the users gathered so far are returned.
func FetchAllUsers(ctx context.Context, api UserPager, orgID string, startPage int, log *zap.Logger) []domain.UserRecord {
	if log == nil {
		log = zap.NewNop()
	}

	var users []domain.UserRecord
	for page := startPage; ; page++ {
		batch, err := api.ListUsersPage(ctx, orgID, page)
		if err != nil {
			log.Error("failed to fetch users page",
				zap.Int("page", page),
				zap.Int("status", httpx.StatusCode(err)),
				zap.Error(err),
			)
			break
		}
		if len(batch) == 0 {
			break
		}

		for _, u := range batch {
			users = append(users, domain.UserRecord{
				FirstName:  u.FirstName,
				LastName:   u.LastName,
				Email:      u.Email,
				JoinedDate: u.JoinedDateTime,
			})
		}
		log.Debug("fetched users page", zap.Int("page", page), zap.Int("count", len(batch)))
	}
	return users
}
