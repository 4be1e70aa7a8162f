package report

import (
	"context"

	"go.uber.org/zap"

	"secureflag-tools/internal/domain"
	"secureflag-tools/internal/httpx"
)

type TitleLookup interface {
	GetLearningPathName(ctx context.Context, uuid string) (string, error)
	GetExerciseTitle(ctx context.Context, uuid string) (string, error)
}

// TitleCache memoizes titles by UUID for a single run. Empty titles are never
// stored, so a failed lookup is attempted again the next time the UUID shows up.
type TitleCache struct {
	titles map[string]string
}

func NewTitleCache() *TitleCache {
	return &TitleCache{titles: make(map[string]string)}
}

func (c *TitleCache) Get(uuid string) (string, bool) {
	t, ok := c.titles[uuid]
	return t, ok
}

func (c *TitleCache) Put(uuid, title string) {
	if title == "" {
		return
	}
	c.titles[uuid] = title
}

func (c *TitleCache) Len() int { return len(c.titles) }

// TitleResolver finds the human-readable title of an assignment. Learning
// paths and exercises each have their own endpoint and cache; other types
// have no title.
type TitleResolver struct {
	API       TitleLookup
	Paths     *TitleCache
	Exercises *TitleCache
	Log       *zap.Logger
}

func NewTitleResolver(api TitleLookup, log *zap.Logger) *TitleResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &TitleResolver{
		API:       api,
		Paths:     NewTitleCache(),
		Exercises: NewTitleCache(),
		Log:       log,
	}
}

// Title never fails; lookups that error or return nothing yield "".
func (r *TitleResolver) Title(ctx context.Context, kind, uuid string) string {
	if uuid == "" {
		return ""
	}

	var (
		cache  *TitleCache
		lookup func(context.Context, string) (string, error)
	)
	switch domain.NormalizeKind(kind) {
	case domain.KindLearningPath:
		cache, lookup = r.Paths, r.API.GetLearningPathName
	case domain.KindExercise:
		cache, lookup = r.Exercises, r.API.GetExerciseTitle
	default:
		return ""
	}

	if t, ok := cache.Get(uuid); ok {
		return t
	}

	title, err := lookup(ctx, uuid)
	if err != nil {
		r.Log.Warn("title lookup failed",
			zap.String("type", kind),
			zap.String("uuid", uuid),
			zap.Int("status", httpx.StatusCode(err)),
			zap.Error(err),
		)
		return ""
	}
	if title == "" {
		r.Log.Info("no activity title", zap.String("type", kind), zap.String("uuid", uuid))
		return ""
	}
	cache.Put(uuid, title)
	return title
}
