//go:build integration
// +build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestResultHistoryAfterGame(t *testing.T) {
	user := createGuest(t, "HistoryPlayer")

	sess := startSession(t, user, "arithmetic-basic")
	playSession(t, user, sess)
	completeSession(t, user, sess.SessionID)

	resp := makeAuthenticatedRequest(t, "GET", fmt.Sprintf("%s/v1/results", baseURL()), user.AccessToken, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected history status: %d", resp.StatusCode)
	}

	var out struct {
		Results []struct {
			ResultID string `json:"result_id"`
			GameType string `json:"game_type"`
		} `json:"results"`
		Total int `json:"total"`
	}
	decodeJSON(t, resp, &out)

	if out.Total != 1 || len(out.Results) != 1 {
		t.Fatalf("expected exactly one result, got total=%d len=%d", out.Total, len(out.Results))
	}
	if out.Results[0].GameType != "arithmetic-basic" {
		t.Fatalf("unexpected game type: %s", out.Results[0].GameType)
	}

	// Single result fetch
	detail := makeAuthenticatedRequest(t, "GET",
		fmt.Sprintf("%s/v1/results/%s", baseURL(), out.Results[0].ResultID), user.AccessToken, nil)
	defer detail.Body.Close()

	if detail.StatusCode != http.StatusOK {
		t.Fatalf("unexpected result detail status: %d", detail.StatusCode)
	}
}

func TestUserStatsAfterGame(t *testing.T) {
	user := createGuest(t, "StatsPlayer")

	sess := startSession(t, user, "arithmetic-basic")
	playSession(t, user, sess)
	completeSession(t, user, sess.SessionID)

	resp := makeAuthenticatedRequest(t, "GET", fmt.Sprintf("%s/v1/users/me/stats", baseURL()), user.AccessToken, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected stats status: %d", resp.StatusCode)
	}

	var out struct {
		GamesPlayed int    `json:"games_played"`
		Rating      string `json:"performance_rating"`
	}
	decodeJSON(t, resp, &out)

	if out.GamesPlayed != 1 {
		t.Fatalf("expected one game played, got %d", out.GamesPlayed)
	}
	if out.Rating == "" {
		t.Fatal("empty performance rating")
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	user := createGuest(t, "BoardPlayer")

	sess := startSession(t, user, "arithmetic-basic")
	playSession(t, user, sess)
	completeSession(t, user, sess.SessionID)

	resp, err := http.Get(fmt.Sprintf("%s/v1/leaderboards/arithmetic-basic/daily", baseURL()))
	if err != nil {
		t.Fatalf("leaderboard request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected leaderboard status: %d", resp.StatusCode)
	}

	var out struct {
		GameType string        `json:"game_type"`
		Window   string        `json:"window"`
		Top      []interface{} `json:"top"`
	}
	decodeJSON(t, resp, &out)

	if out.GameType != "arithmetic-basic" || out.Window != "daily" {
		t.Fatalf("unexpected board identity: %s/%s", out.GameType, out.Window)
	}
}
