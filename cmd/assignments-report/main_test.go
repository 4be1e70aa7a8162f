package main

import (
	"bytes"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ORG_ID", "TOKEN", "SECUREFLAG_BASE_URL", "SFTP_HOST", "SFTP_USER", "SFTP_PASS"} {
		t.Setenv(k, "")
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/organizations/org-1/users/0":
			io.WriteString(w, `[
				{"firstName":"Alice","lastName":"Smith","email":"alice@example.com","joinedDateTime":"2023-05-01T10:00:00Z"},
				{"firstName":"Bob","lastName":"Jones","email":"bob@example.com","joinedDateTime":"2023-06-15T08:30:00Z"}
			]`)
		case "/organizations/org-1/users/1":
			io.WriteString(w, `[]`)
		case "/users/alice@example.com/assigned":
			io.WriteString(w, `[
				{"uuid":"p-1","type":"LEARNING_PATH","status":"IN_PROGRESS","expire":"2024-01-31T00:00:00Z","assigned":"2023-12-01T09:00:00Z","completed":""},
				{"uuid":"e-1","type":"EXERCISE","status":"COMPLETED","expire":"","assigned":"2023-11-02T09:00:00Z","completed":"2023-11-03T12:00:00Z"}
			]`)
		case "/users/bob@example.com/assigned":
			w.WriteHeader(http.StatusInternalServerError)
		case "/paths/p-1":
			io.WriteString(w, `{"name":"Secure Java"}`)
		case "/exercises/e-1":
			io.WriteString(w, `{"title":"SQL Injection"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(t.Context())
	return stderr.String(), err
}

func TestRun_WritesCSVReport(t *testing.T) {
	clearEnv(t)
	server := newServer(t)
	t.Setenv("SECUREFLAG_BASE_URL", server.URL)
	t.Setenv("ORG_ID", "org-1")
	t.Setenv("TOKEN", "tok")

	out := filepath.Join(t.TempDir(), "reports", "assignments.csv")
	_, err := execute(t, "--out", out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"First Name", "Last Name", "Email", "Joined Date", "Activity Title", "Due Date", "Assigned Date", "Completed Date", "Status", "Type"},
		{"Alice", "Smith", "alice@example.com", "01-05-2023", "Secure Java", "31-01-2024", "01-12-2023", "", "IN_PROGRESS", "LEARNING_PATH"},
		{"Alice", "Smith", "alice@example.com", "01-05-2023", "SQL Injection", "", "02-11-2023", "03-11-2023", "COMPLETED", "EXERCISE"},
	}, records)
}

func TestRun_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	server := newServer(t)
	t.Setenv("ORG_ID", "wrong-org")
	t.Setenv("TOKEN", "wrong-token")

	out := filepath.Join(t.TempDir(), "report.csv")
	_, err := execute(t, "--org-id", "org-1", "--token", "tok", "--base-url", server.URL, "--out", out)
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestRun_WritesXLSXReport(t *testing.T) {
	clearEnv(t)
	server := newServer(t)
	t.Setenv("SECUREFLAG_BASE_URL", server.URL)

	out := filepath.Join(t.TempDir(), "report.xlsx")
	_, err := execute(t, "--org-id", "org-1", "--token", "tok", "--out", out, "--format", "xlsx")
	require.NoError(t, err)

	wb, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Activity Title", rows[0][4])
	assert.Equal(t, "SQL Injection", rows[2][4])
}

func TestRun_NoRowsWritesNoFile(t *testing.T) {
	clearEnv(t)
	server := newServer(t)
	t.Setenv("SECUREFLAG_BASE_URL", server.URL)

	out := filepath.Join(t.TempDir(), "report.csv")
	_, err := execute(t, "--org-id", "org-1", "--token", "tok", "--out", out, "--start-page", "1")
	require.NoError(t, err)
	assert.NoFileExists(t, out)
}

func TestRun_MissingCredentials(t *testing.T) {
	clearEnv(t)

	stderr, err := execute(t, "--org-id", "org-1")
	require.ErrorIs(t, err, errMissingCredentials)
	assert.Equal(t, "missing org id or token", err.Error())
	assert.Contains(t, stderr, "Missing ORG_ID/TOKEN. Set env vars or pass --org-id/--token.")
}

func TestRun_UnknownFormat(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "--org-id", "org-1", "--token", "tok", "--format", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
}

func TestRun_UploadRequiresSFTPSettings(t *testing.T) {
	clearEnv(t)
	server := newServer(t)
	t.Setenv("SECUREFLAG_BASE_URL", server.URL)

	out := filepath.Join(t.TempDir(), "report.csv")
	_, err := execute(t, "--org-id", "org-1", "--token", "tok", "--out", out, "--sftp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SFTP_HOST")
	assert.FileExists(t, out)
}
