//go:build integration
// +build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

type startedSession struct {
	SessionID      string `json:"session_id"`
	TemplateID     string `json:"template_id"`
	TotalQuestions int    `json:"total_questions"`
	Question       struct {
		Number int    `json:"number"`
		Text   string `json:"text"`
	} `json:"question"`
}

func startSession(t *testing.T, user userInfo, templateID string) startedSession {
	t.Helper()

	resp := makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/sessions", baseURL()), user.AccessToken,
		map[string]string{"template_id": templateID})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected start session status: %d", resp.StatusCode)
	}

	var out startedSession
	decodeJSON(t, resp, &out)
	if out.SessionID == "" {
		t.Fatal("session ID is empty")
	}
	return out
}

// playSession answers every question (with a throwaway value, the server
// never reveals correct answers) and advances until the list is exhausted.
func playSession(t *testing.T, user userInfo, sess startedSession) {
	t.Helper()

	for {
		resp := makeAuthenticatedRequest(t, "POST",
			fmt.Sprintf("%s/v1/sessions/%s/answers", baseURL(), sess.SessionID),
			user.AccessToken, map[string]string{"answer": "0"})
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			t.Fatalf("unexpected submit status: %d", resp.StatusCode)
		}
		resp.Body.Close()

		next := makeAuthenticatedRequest(t, "POST",
			fmt.Sprintf("%s/v1/sessions/%s/next", baseURL(), sess.SessionID),
			user.AccessToken, nil)
		if next.StatusCode != http.StatusOK {
			next.Body.Close()
			t.Fatalf("unexpected next status: %d", next.StatusCode)
		}

		var out struct {
			Done bool `json:"done"`
		}
		decodeJSON(t, next, &out)
		next.Body.Close()

		if out.Done {
			return
		}
	}
}

func completeSession(t *testing.T, user userInfo, sessionID string) map[string]interface{} {
	t.Helper()

	resp := makeAuthenticatedRequest(t, "POST",
		fmt.Sprintf("%s/v1/sessions/%s/complete", baseURL(), sessionID), user.AccessToken, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected complete status: %d", resp.StatusCode)
	}

	var out map[string]interface{}
	decodeJSON(t, resp, &out)
	return out
}

func TestSessionFullLifecycle(t *testing.T) {
	user := createGuest(t, "SessionPlayer")

	sess := startSession(t, user, "arithmetic-basic")
	if sess.TotalQuestions == 0 {
		t.Fatal("no questions in session")
	}
	if sess.Question.Text == "" {
		t.Fatal("first question text is empty")
	}

	playSession(t, user, sess)
	out := completeSession(t, user, sess.SessionID)

	result, ok := out["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing result in completion response: %v", out)
	}
	if int(result["total_questions"].(float64)) != sess.TotalQuestions {
		t.Fatalf("total_questions mismatch: %v", result["total_questions"])
	}
}

func TestSessionCompleteIsIdempotent(t *testing.T) {
	user := createGuest(t, "ReplayPlayer")

	sess := startSession(t, user, "arithmetic-basic")
	playSession(t, user, sess)

	first := completeSession(t, user, sess.SessionID)
	second := completeSession(t, user, sess.SessionID)

	firstResult := first["result"].(map[string]interface{})
	secondResult := second["result"].(map[string]interface{})
	if firstResult["total_score"] != secondResult["total_score"] {
		t.Fatalf("replayed completion changed score: %v vs %v",
			firstResult["total_score"], secondResult["total_score"])
	}
}

func TestSessionProgress(t *testing.T) {
	user := createGuest(t, "ProgressPlayer")
	sess := startSession(t, user, "arithmetic-advanced")

	resp := makeAuthenticatedRequest(t, "GET",
		fmt.Sprintf("%s/v1/sessions/%s/progress", baseURL(), sess.SessionID), user.AccessToken, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected progress status: %d", resp.StatusCode)
	}

	var out struct {
		Progress struct {
			Current int `json:"current"`
			Total   int `json:"total"`
		} `json:"progress"`
		Completed bool `json:"completed"`
	}
	decodeJSON(t, resp, &out)

	if out.Progress.Total != sess.TotalQuestions {
		t.Fatalf("progress total mismatch: %d vs %d", out.Progress.Total, sess.TotalQuestions)
	}
	if out.Completed {
		t.Fatal("fresh session reported completed")
	}
}

func TestSessionOwnership(t *testing.T) {
	owner := createGuest(t, "Owner")
	intruder := createGuest(t, "Intruder")

	sess := startSession(t, owner, "arithmetic-basic")

	resp := makeAuthenticatedRequest(t, "POST",
		fmt.Sprintf("%s/v1/sessions/%s/answers", baseURL(), sess.SessionID),
		intruder.AccessToken, map[string]string{"answer": "1"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign session, got %d", resp.StatusCode)
	}
}
