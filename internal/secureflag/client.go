package secureflag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"secureflag-tools/internal/httpx"
)

const (
	contentTypeJSON = "application/json"
	acceptJSON      = contentTypeJSON
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    httpx.NewClient(),
	}
}

type LearningPath struct {
	UUID       string `json:"uuid"`
	Name       string `json:"name"`
	Technology string `json:"technology"`
}

type Exercise struct {
	UUID       string `json:"uuid"`
	Title      string `json:"title"`
	Technology string `json:"technology"`
	LabType    string `json:"labType"`
}

type User struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	JoinedDateTime string `json:"joinedDateTime"`
}

type Assignment struct {
	UUID      string `json:"uuid"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Expire    string `json:"expire"`
	Assigned  string `json:"assigned"`
	Completed string `json:"completed"`
}

// RemoveAssignmentsRequest is the body of POST /users/removeAssignment.
// Empty activity lists are omitted from the payload rather than sent as [].
type RemoveAssignmentsRequest struct {
	Users         []string `json:"users"`
	AssignedLabs  []string `json:"assignedLabs,omitempty"`
	AssignedPaths []string `json:"assignedPaths,omitempty"`
}

type RemoveAssignmentsResponse struct {
	StatusCode int
	Body       []byte
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("secureflag: missing api token")
	}
	return httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
			if err != nil {
				return nil, err
			}
			r.Header.Set("Accept", acceptJSON)
			r.Header.Set("Authorization", "Bearer "+c.Token)
			return r, nil
		},
		out,
	)
}

func (c *Client) ListLearningPaths(ctx context.Context) ([]LearningPath, error) {
	var out []LearningPath
	if err := c.get(ctx, "/paths", &out); err != nil {
		return nil, fmt.Errorf("secureflag: list learning paths failed: %w", err)
	}
	return out, nil
}

func (c *Client) ListExercises(ctx context.Context) ([]Exercise, error) {
	var out []Exercise
	if err := c.get(ctx, "/exercises", &out); err != nil {
		return nil, fmt.Errorf("secureflag: list exercises failed: %w", err)
	}
	return out, nil
}

// ListUsersPage returns one page of organization users. A nil or empty
// slice means there are no more pages.
func (c *Client) ListUsersPage(ctx context.Context, orgID string, page int) ([]User, error) {
	var out []User
	path := "/organizations/" + url.PathEscape(orgID) + "/users/" + strconv.Itoa(page)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("secureflag: list users page %d failed: %w", page, err)
	}
	return out, nil
}

func (c *Client) ListUserAssignments(ctx context.Context, email string) ([]Assignment, error) {
	var out []Assignment
	if err := c.get(ctx, "/users/"+escapeSegment(email)+"/assigned", &out); err != nil {
		return nil, fmt.Errorf("secureflag: list assignments for %s failed: %w", email, err)
	}
	return out, nil
}

// GetLearningPathName returns the name field of /paths/{uuid}. An empty
// string with a nil error means the endpoint answered without a name.
func (c *Client) GetLearningPathName(ctx context.Context, uuid string) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/paths/"+url.PathEscape(uuid), &out); err != nil {
		return "", fmt.Errorf("secureflag: get learning path %s failed: %w", uuid, err)
	}
	return out.Name, nil
}

func (c *Client) GetExerciseTitle(ctx context.Context, uuid string) (string, error) {
	var out struct {
		Title string `json:"title"`
	}
	if err := c.get(ctx, "/exercises/"+url.PathEscape(uuid), &out); err != nil {
		return "", fmt.Errorf("secureflag: get exercise %s failed: %w", uuid, err)
	}
	return out.Title, nil
}

// RemoveAssignments posts one removal request. Non-2xx statuses come back as
// an *httpx.HTTPError; the body of a 2xx answer is returned for inspection.
func (c *Client) RemoveAssignments(ctx context.Context, req RemoveAssignmentsRequest) (RemoveAssignmentsResponse, error) {
	if strings.TrimSpace(c.Token) == "" {
		return RemoveAssignmentsResponse{}, errors.New("secureflag: missing api token")
	}

	b, err := json.Marshal(req)
	if err != nil {
		return RemoveAssignmentsResponse{}, fmt.Errorf("secureflag: marshal remove request: %w", err)
	}

	resp, body, err := httpx.Do(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/users/removeAssignment", bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", contentTypeJSON)
			r.Header.Set("Accept", acceptJSON)
			r.Header.Set("Authorization", "Bearer "+c.Token)
			return r, nil
		},
	)
	if err != nil {
		return RemoveAssignmentsResponse{}, fmt.Errorf("secureflag: remove assignment failed: %w", err)
	}
	return RemoveAssignmentsResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// escapeSegment percent-encodes every reserved character, "@" included.
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
