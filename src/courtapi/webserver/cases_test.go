package webserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overruled-app/overruled/src/courtapi/config"
	"github.com/overruled-app/overruled/src/courtapi/judge"
	"github.com/overruled-app/overruled/src/courtapi/store"
)

// newTestServer stands up the full route stack on a memory store with the
// scripted judge and no Redis; the hub's in-process nudges carry all change
// delivery, exactly like a single-process deployment.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	st := store.NewMemory()
	jd := judge.NewService(judge.NewScripted(), "stern")

	g := gin.New()
	attachRoutes(g, cfg, st, nil, jd)
	return g
}

func doJSON(t *testing.T, g *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestCreateJoinAndStatements(t *testing.T) {
	g := newTestServer(t)

	w := doJSON(t, g, http.MethodPost, "/v1/cases", "", gin.H{"partyAName": "Sam"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	caseID := created["caseId"].(string)
	roomCode := created["roomCode"].(string)
	tokenA := created["token"].(string)
	require.NotEmpty(t, tokenA)
	require.Len(t, roomCode, 6)

	w = doJSON(t, g, http.MethodPost, "/v1/cases/join", "", gin.H{"roomCode": roomCode, "partyBName": "Riley"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	joined := decode(t, w)
	tokenB := joined["token"].(string)
	require.NotEmpty(t, tokenB)

	base := "/v1/cases/" + caseID

	// Statements land in fixed order: A, then B, then cross-examination
	// opens with a question already generated by B's client.
	w = doJSON(t, g, http.MethodPost, base+"/statement", tokenA, gin.H{"text": "Riley ate my labeled leftovers."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, g, http.MethodPost, base+"/statement", tokenB, gin.H{"text": "There was no label."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, g, http.MethodGet, base, tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decode(t, w)["case"].(map[string]any)
	assert.Equal(t, "crossExam", state["phase"])
	assert.Equal(t, "A", state["examTarget"])
	assert.NotEmpty(t, state["currentQuestion"])

	// And the examined party can answer through the API.
	w = doJSON(t, g, http.MethodPost, base+"/answer", tokenA, gin.H{"text": "It had my initials on the lid."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state = decode(t, w)["case"].(map[string]any)
	assert.Equal(t, "B", state["examTarget"])
}

func TestJoinErrorStates(t *testing.T) {
	g := newTestServer(t)

	w := doJSON(t, g, http.MethodPost, "/v1/cases", "", gin.H{"partyAName": "Sam"})
	require.Equal(t, http.StatusCreated, w.Code)
	roomCode := decode(t, w)["roomCode"].(string)

	w = doJSON(t, g, http.MethodPost, "/v1/cases/join", "", gin.H{"roomCode": "ZZZZZZ", "partyBName": "Riley"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, g, http.MethodPost, "/v1/cases/join", "", gin.H{"roomCode": roomCode, "partyBName": "Riley"})
	require.Equal(t, http.StatusOK, w.Code)

	// A full courtroom is a conflict, not a missing case.
	w = doJSON(t, g, http.MethodPost, "/v1/cases/join", "", gin.H{"roomCode": roomCode, "partyBName": "Jordan"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionEnforcement(t *testing.T) {
	g := newTestServer(t)

	w := doJSON(t, g, http.MethodPost, "/v1/cases", "", gin.H{"partyAName": "Sam"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	caseID := created["caseId"].(string)
	tokenA := created["token"].(string)

	w = doJSON(t, g, http.MethodGet, "/v1/cases/"+caseID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, g, http.MethodGet, "/v1/cases/"+caseID, "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, g, http.MethodGet, "/v1/cases/other-case", tokenA, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Tokens signed with the wrong secret never pass the middleware.
	bad, err := issueSessionJWT(caseID, "A", "sess", []byte("wrong-secret"))
	require.NoError(t, err)
	w = doJSON(t, g, http.MethodGet, "/v1/cases/"+caseID, bad, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidationErrors(t *testing.T) {
	g := newTestServer(t)

	w := doJSON(t, g, http.MethodPost, "/v1/cases", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Markup-only names sanitize to nothing and are rejected.
	w = doJSON(t, g, http.MethodPost, "/v1/cases", "", gin.H{"partyAName": "<script>alert(1)</script>"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, g, http.MethodPost, "/v1/cases/join", "", gin.H{"roomCode": "TOOLONGCODE", "partyBName": "Riley"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutOfTurnActionsConflict(t *testing.T) {
	g := newTestServer(t)

	w := doJSON(t, g, http.MethodPost, "/v1/cases", "", gin.H{"partyAName": "Sam"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	caseID := created["caseId"].(string)
	roomCode := created["roomCode"].(string)
	tokenA := created["token"].(string)

	w = doJSON(t, g, http.MethodPost, "/v1/cases/join", "", gin.H{"roomCode": roomCode, "partyBName": "Riley"})
	require.Equal(t, http.StatusOK, w.Code)
	tokenB := decode(t, w)["token"].(string)

	base := "/v1/cases/" + caseID

	// B cannot open; answering has no pending question yet; appealing has
	// no verdict. All are state conflicts, not server failures.
	for _, tc := range []struct {
		path  string
		token string
		body  gin.H
	}{
		{base + "/statement", tokenB, gin.H{"text": "me first"}},
		{base + "/answer", tokenA, gin.H{"text": "premature"}},
		{base + "/appeal", tokenA, gin.H{"argument": "premature"}},
		{base + "/continue", tokenA, nil},
	} {
		w = doJSON(t, g, http.MethodPost, tc.path, tc.token, tc.body)
		assert.Equal(t, http.StatusConflict, w.Code, fmt.Sprintf("%s: %s", tc.path, w.Body.String()))
	}
}
