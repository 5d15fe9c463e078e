// Minimal end-to-end integration test for the Overruled API: drives both
// parties of one case through a full trial against a running server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
)

var baseURL = getenv("API_URL", "http://localhost:8080/v1")

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

type caseState struct {
	Phase           string `json:"phase"`
	ExamTarget      string `json:"examTarget"`
	CurrentQuestion string `json:"currentQuestion"`
	CredibilityA    int    `json:"credibilityA"`
	CredibilityB    int    `json:"credibilityB"`
	Verdict         *struct {
		WinnerName string `json:"winnerName"`
		LoserName  string `json:"loserName"`
		Reasoning  string `json:"reasoning"`
	} `json:"verdict"`
}

func main() {
	caseID, roomCode, tokenA := createCase()
	tokenB := joinCase(roomCode)
	tokens := map[string]string{"A": tokenA, "B": tokenB}

	doAuth(tokenA, "POST", "/cases/"+caseID+"/statement",
		map[string]any{"text": "Riley ate my clearly labeled leftovers. Third time this month."}, nil, http.StatusOK)
	doAuth(tokenB, "POST", "/cases/"+caseID+"/statement",
		map[string]any{"text": "The container had no label. Abandoned food is fair game."}, nil, http.StatusOK)

	doAuth(tokenA, "POST", "/cases/"+caseID+"/typing", map[string]any{"typing": true}, nil, http.StatusAccepted)

	// Answer until testimony closes. Questions are generated synchronously
	// server-side, so every poll either has a question or a new phase.
	for i := 0; i < 20; i++ {
		st := getState(tokenA, caseID)
		switch st.Phase {
		case "crossExam":
			tok := tokens[st.ExamTarget]
			doAuth(tok, "POST", "/cases/"+caseID+"/answer",
				map[string]any{"text": fmt.Sprintf("Answer %d: it had my initials on the lid.", i)}, nil, http.StatusOK)
		case "snapJudgment":
			doAuth(tokenA, "POST", "/cases/"+caseID+"/continue", nil, nil, http.StatusOK)
		case "verdict":
			checkVerdict(st, tokens, caseID)
			fmt.Println("✓ all endpoints passed")
			return
		default:
			log.Fatalf("unexpected phase %q", st.Phase)
		}
	}
	log.Fatal("case never reached a verdict")
}

func createCase() (id, roomCode, token string) {
	var resp struct {
		CaseID   string `json:"caseId"`
		RoomCode string `json:"roomCode"`
		Token    string `json:"token"`
	}
	doJSON("POST", "/cases", map[string]any{"partyAName": "Sam"}, &resp, http.StatusCreated)
	if resp.Token == "" || resp.RoomCode == "" {
		log.Fatal("create: missing token or room code")
	}
	return resp.CaseID, resp.RoomCode, resp.Token
}

func joinCase(roomCode string) string {
	var resp struct {
		Token string `json:"token"`
	}
	doJSON("POST", "/cases/join", map[string]any{"roomCode": roomCode, "partyBName": "Riley"}, &resp, http.StatusOK)
	if resp.Token == "" {
		log.Fatal("join: empty token")
	}
	return resp.Token
}

func getState(token, caseID string) caseState {
	var resp struct {
		Case caseState `json:"case"`
	}
	doAuth(token, "GET", "/cases/"+caseID, nil, &resp, http.StatusOK)
	return resp.Case
}

func checkVerdict(st caseState, tokens map[string]string, caseID string) {
	if st.Verdict == nil {
		log.Fatal("verdict phase with no verdict payload")
	}
	fmt.Printf("verdict: %s over %s (%s)\n", st.Verdict.WinnerName, st.Verdict.LoserName, st.Verdict.Reasoning)

	// The loser gets one appeal; upheld or reversed, the call must succeed.
	loserTok := tokens["B"]
	if st.Verdict.LoserName == "Sam" {
		loserTok = tokens["A"]
	}
	doAuth(loserTok, "POST", "/cases/"+caseID+"/appeal",
		map[string]any{"argument": "The ruling ignores that the leftovers were bought with shared money."}, nil, http.StatusOK)
}

// ----------------------------- helpers

func doAuth(token, method, path string, body, out any, want int) {
	doReq(method, path, token, body, out, want)
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, token string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
