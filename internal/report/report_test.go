package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportPostsResult(t *testing.T) {
	var got Result
	var gotPath, gotMethod, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := Result{Token: "tok-a", Won: true, GoalsScored: 5, GoalsConceded: 3, ScoreChange: 2}
	reporter := NewReporter(srv.URL + "/") // trailing slash is trimmed
	require.NoError(t, reporter.Report(context.Background(), res))

	assert.Equal(t, "/game-result", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, res, got)
}

func TestReportRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	reporter := NewReporter(srv.URL)
	err := reporter.Report(context.Background(), Result{Token: "tok-a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game result rejected")
}

func TestReportUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	reporter := NewReporter(srv.URL)
	assert.Error(t, reporter.Report(context.Background(), Result{Token: "tok-a"}))
}
