package report

import (
	"context"
	"fmt"
	"net/http"

	"secureflag-tools/internal/httpx"
	"secureflag-tools/internal/secureflag"
)

// fakeAPI serves canned pages and titles and counts every call.
type fakeAPI struct {
	pages       [][]secureflag.User
	failPage    int
	assignments map[string][]secureflag.Assignment
	paths       map[string]string
	exercises   map[string]string

	pageCalls     []int
	pathCalls     map[string]int
	exerciseCalls map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		failPage:      -1,
		assignments:   map[string][]secureflag.Assignment{},
		paths:         map[string]string{},
		exercises:     map[string]string{},
		pathCalls:     map[string]int{},
		exerciseCalls: map[string]int{},
	}
}

func notFound(path string) error {
	return fmt.Errorf("secureflag: %s: %w", path, &httpx.HTTPError{Method: http.MethodGet, URL: path, StatusCode: http.StatusNotFound})
}

func (f *fakeAPI) ListUsersPage(ctx context.Context, orgID string, page int) ([]secureflag.User, error) {
	f.pageCalls = append(f.pageCalls, page)
	if page == f.failPage {
		return nil, &httpx.HTTPError{Method: http.MethodGet, StatusCode: http.StatusInternalServerError}
	}
	if page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page], nil
}

func (f *fakeAPI) ListUserAssignments(ctx context.Context, email string) ([]secureflag.Assignment, error) {
	list, ok := f.assignments[email]
	if !ok {
		return nil, notFound("/users/" + email + "/assigned")
	}
	return list, nil
}

func (f *fakeAPI) GetLearningPathName(ctx context.Context, uuid string) (string, error) {
	f.pathCalls[uuid]++
	name, ok := f.paths[uuid]
	if !ok {
		return "", notFound("/paths/" + uuid)
	}
	return name, nil
}

func (f *fakeAPI) GetExerciseTitle(ctx context.Context, uuid string) (string, error) {
	f.exerciseCalls[uuid]++
	title, ok := f.exercises[uuid]
	if !ok {
		return "", notFound("/exercises/" + uuid)
	}
	return title, nil
}

func usersN(prefix string, n int) []secureflag.User {
	out := make([]secureflag.User, n)
	for i := range out {
		out[i] = secureflag.User{Email: fmt.Sprintf("%s-%d@example.com", prefix, i)}
	}
	return out
}
