// Package report posts finished-game results to the external account and
// leaderboard service. The service itself lives outside this repository; only
// its /game-result interface is consumed here, and a failed report is logged,
// never fatal to the session.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Result is one player's outcome for a finished session.
type Result struct {
	Token         string `json:"token"`
	Won           bool   `json:"won"`
	GoalsScored   int    `json:"goals_scored"`
	GoalsConceded int    `json:"goals_conceded"`
	ScoreChange   int    `json:"score_change"`
}

// Reporter posts results to the account service.
type Reporter struct {
	baseURL string
	client  *http.Client
}

// NewReporter builds a reporter for the given service base URL.
func NewReporter(baseURL string) *Reporter {
	return &Reporter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Report delivers one result. The caller decides whether an error matters;
// the session layer only logs it.
func (r *Reporter) Report(ctx context.Context, res Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/game-result", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("post game result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("game result rejected: %s", resp.Status)
	}
	return nil
}
