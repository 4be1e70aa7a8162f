package removal

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secureflag-tools/internal/httpx"
	"secureflag-tools/internal/secureflag"
)

type fakeRemover struct {
	requests  []secureflag.RemoveAssignmentsRequest
	responses []secureflag.RemoveAssignmentsResponse
	errs      []error
}

func (f *fakeRemover) RemoveAssignments(ctx context.Context, req secureflag.RemoveAssignmentsRequest) (secureflag.RemoveAssignmentsResponse, error) {
	i := len(f.requests)
	f.requests = append(f.requests, req)
	var resp secureflag.RemoveAssignmentsResponse
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return resp, err
}

func removalFor(user string, labs, paths []string) UserRemoval {
	return UserRemoval{
		User:  user,
		Labs:  mapset.NewThreadUnsafeSet(labs...),
		Paths: mapset.NewThreadUnsafeSet(paths...),
	}
}

func TestDispatchSendsOnePerUser(t *testing.T) {
	client := &fakeRemover{responses: []secureflag.RemoveAssignmentsResponse{
		{StatusCode: 200, Body: []byte(`{"ok":true}`)},
		{StatusCode: 200, Body: []byte(`[]`)},
	}}
	var out bytes.Buffer

	err := Dispatcher{Client: client, Out: &out}.Dispatch(context.Background(), []UserRemoval{
		removalFor("ada@example.com", []string{"lab-1"}, nil),
		removalFor("bob@example.com", nil, []string{"p-1", "p-2"}),
	})
	require.NoError(t, err)
	require.Len(t, client.requests, 2)
	assert.Nil(t, client.requests[0].AssignedPaths)
	assert.Equal(t, []string{"p-1", "p-2"}, client.requests[1].AssignedPaths)
	assert.Equal(t,
		"Removed 0 Paths and 1 Labs for ada@example.com [HTTP 200]\n"+
			"Removed 2 Paths and 0 Labs for bob@example.com [HTTP 200]\n",
		out.String())
}

func TestDispatchStopsOnErrorStatus(t *testing.T) {
	client := &fakeRemover{errs: []error{&httpx.HTTPError{Method: http.MethodPost, StatusCode: 500, Body: []byte("boom")}}}

	err := Dispatcher{Client: client}.Dispatch(context.Background(), []UserRemoval{
		removalFor("ada@example.com", []string{"lab-1"}, nil),
		removalFor("bob@example.com", []string{"lab-2"}, nil),
	})
	require.Error(t, err)
	assert.Equal(t, 500, httpx.StatusCode(err))
	assert.Len(t, client.requests, 1, "must not continue to remaining users")
}

func TestDispatchStopsOnFailureBody(t *testing.T) {
	for _, key := range []string{"error", "failed", "errors", "failures"} {
		client := &fakeRemover{responses: []secureflag.RemoveAssignmentsResponse{
			{StatusCode: 200, Body: []byte(`{"` + key + `":["lab-1"]}`)},
		}}

		err := Dispatcher{Client: client}.Dispatch(context.Background(), []UserRemoval{
			removalFor("ada@example.com", []string{"lab-1"}, nil),
			removalFor("bob@example.com", []string{"lab-2"}, nil),
		})
		var are *APIReportedError
		require.ErrorAs(t, err, &are, key)
		assert.Equal(t, "ada@example.com", are.User)
		assert.Len(t, client.requests, 1)
	}
}

func TestDispatchDryRun(t *testing.T) {
	client := &fakeRemover{errs: []error{errors.New("must not be called")}}
	var out bytes.Buffer

	err := Dispatcher{Client: client, DryRun: true, Out: &out}.Dispatch(context.Background(), []UserRemoval{
		removalFor("ada@example.com", []string{"lab-2", "lab-1"}, []string{"p-1"}),
	})
	require.NoError(t, err)
	assert.Empty(t, client.requests)
	assert.Equal(t,
		`[Dry-run] Would remove for ada@example.com: {"users":["ada@example.com"],"assignedLabs":["lab-1","lab-2"],"assignedPaths":["p-1"]}`+"\n",
		out.String())
}

func TestDispatchRejectsEmptyUser(t *testing.T) {
	client := &fakeRemover{}
	err := Dispatcher{Client: client, DryRun: true}.Dispatch(context.Background(), []UserRemoval{
		removalFor("ada@example.com", nil, nil),
	})
	var nae *NoActivitiesError
	require.ErrorAs(t, err, &nae)
}

func TestBodyReportsFailure(t *testing.T) {
	testCases := []struct {
		body     string
		expected bool
	}{
		{`{"error":"x"}`, true},
		{`{"failures":[]}`, true},
		{`{"removed":2}`, false},
		{`["error"]`, false},
		{``, false},
		{`not json`, false},
	}

	for _, tc := range testCases {
		if got := bodyReportsFailure([]byte(tc.body)); got != tc.expected {
			t.Errorf("bodyReportsFailure(%q) = %v, want %v", tc.body, got, tc.expected)
		}
	}
}
