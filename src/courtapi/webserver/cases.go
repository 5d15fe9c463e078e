package webserver

import (
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"

	"github.com/overruled-app/overruled/src/courtapi/broadcast"
	"github.com/overruled-app/overruled/src/courtapi/engine"
	"github.com/overruled-app/overruled/src/courtapi/store"
	"github.com/overruled-app/overruled/src/courtapi/types"
)

type Cases struct {
	st        store.Store
	rdb       *redis.Client
	hub       *Hub
	jwtSecret []byte
	sanitizer *bluemonday.Policy
}

func NewCases(st store.Store, rdb *redis.Client, hub *Hub, secret []byte) Cases {
	// Courtroom text is plain text; strip all markup.
	return Cases{
		st:        st,
		rdb:       rdb,
		hub:       hub,
		jwtSecret: secret,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (h Cases) clean(s string) (string, bool) {
	out := h.sanitizer.Sanitize(s)
	return out, utf8.ValidString(out)
}

func (h Cases) Create(c *gin.Context) {
	var req struct {
		PartyAName string `json:"partyAName" binding:"required,min=1,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	name, ok := h.clean(req.PartyAName)
	if !ok || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid party name"})
		return
	}

	sessionID := uuid.NewString()
	kase, err := engine.FileCase(c, h.st, name, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	token, err := issueSessionJWT(kase.ID, types.PartyA, sessionID, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"caseId":   kase.ID,
		"roomCode": kase.RoomCode,
		"role":     types.PartyA,
		"token":    token,
	})
}

func (h Cases) Join(c *gin.Context) {
	var req struct {
		RoomCode   string `json:"roomCode" binding:"required,len=6"`
		PartyBName string `json:"partyBName" binding:"required,min=1,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	name, ok := h.clean(req.PartyBName)
	if !ok || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid party name"})
		return
	}

	sessionID := uuid.NewString()
	kase, err := engine.JoinCase(c, h.st, req.RoomCode, name, sessionID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Typos are the common case; not-found gets its own state.
		c.JSON(http.StatusNotFound, gin.H{"err": "case not found"})
		return
	case errors.Is(err, store.ErrCaseFull):
		c.JSON(http.StatusConflict, gin.H{"err": "case already has two parties"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	token, err := issueSessionJWT(kase.ID, types.PartyB, sessionID, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	h.hub.Nudge(c, kase.ID, types.PartyB)
	c.JSON(http.StatusOK, gin.H{
		"caseId": kase.ID,
		"role":   types.PartyB,
		"token":  token,
	})
}

// session re-validates the token binding against the case record and
// returns the engine for this session. A binding whose session id no
// longer matches the record is discarded, not trusted.
func (h Cases) session(c *gin.Context) (*engine.Engine, types.Party, bool) {
	caseID := c.Param("id")
	if caseID != c.GetString("caseId") {
		c.JSON(http.StatusForbidden, gin.H{"err": "token is for another case"})
		return nil, "", false
	}
	role := types.Party(c.GetString("role"))
	if role != types.PartyA && role != types.PartyB {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad role"})
		return nil, "", false
	}

	kase, err := h.st.GetCaseByID(c, caseID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "case not found"})
		return nil, "", false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return nil, "", false
	}
	if kase.SessionFor(role) != c.GetString("session") {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "stale session binding"})
		return nil, "", false
	}

	eng, err := h.hub.Engine(c, caseID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return nil, "", false
	}
	return eng, role, true
}

func (h Cases) Get(c *gin.Context) {
	eng, role, ok := h.session(c)
	if !ok {
		return
	}
	// Refresh from the store so a reload re-derives state from persisted
	// fields rather than trusting anything client-side.
	eng.HandleChange(c)
	p := eng.Projection()

	c.JSON(http.StatusOK, gin.H{
		"case":            projectionView(p),
		"role":            role,
		"objectionWindow": eng.ObjectionWindowOpen(),
		"credibilityLog":  eng.History(),
	})
}

func projectionView(p engine.Projection) gin.H {
	out := gin.H{
		"caseId":          p.CaseID,
		"roomCode":        p.RoomCode,
		"partyAName":      p.PartyAName,
		"partyBName":      p.PartyBName,
		"statementA":      p.StatementA,
		"statementB":      p.StatementB,
		"phase":           p.Phase,
		"currentTurn":     p.CurrentTurn,
		"examRound":       p.ExamRound,
		"examTarget":      p.ExamTarget,
		"currentQuestion": p.CurrentQuestion,
		"credibilityA":    p.CredibilityA,
		"credibilityB":    p.CredibilityB,
		"objectionUsedA":  p.ObjectionUsedA,
		"objectionUsedB":  p.ObjectionUsedB,
		"responses":       p.Responses,
	}
	if p.Phase == types.PhaseSnapJudgment {
		out["snapJudgment"] = gin.H{
			"isSnapJudgment": true,
			"winnerName":     p.SnapWinner,
			"reason":         p.SnapReason,
		}
	}
	if p.Verdict != nil {
		out["verdict"] = gin.H{
			"winnerName":     p.Verdict.WinnerName,
			"loserName":      p.Verdict.LoserName,
			"summary":        p.Verdict.Summary,
			"reasoning":      p.Verdict.Reasoning,
			"isSnapJudgment": p.Verdict.IsSnapJudgment,
			"snapReason":     p.Verdict.SnapReason,
			"appealed":       p.Verdict.Appealed,
		}
	}
	return out
}

func (h Cases) Statement(c *gin.Context) {
	eng, role, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" binding:"required,min=1,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	text, tok := h.clean(req.Text)
	if !tok || text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid statement text"})
		return
	}

	if err := eng.SubmitStatement(c, text); err != nil {
		writeEngineErr(c, err)
		return
	}
	h.hub.Nudge(c, eng.Projection().CaseID, role)
	c.JSON(http.StatusOK, gin.H{"case": projectionView(eng.Projection())})
}

func (h Cases) Answer(c *gin.Context) {
	eng, role, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" binding:"required,min=1,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	text, tok := h.clean(req.Text)
	if !tok || text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid answer text"})
		return
	}

	if err := eng.SubmitAnswer(c, text); err != nil {
		writeEngineErr(c, err)
		return
	}
	h.hub.Nudge(c, eng.Projection().CaseID, role)
	c.JSON(http.StatusOK, gin.H{"case": projectionView(eng.Projection())})
}

func (h Cases) ContinueSnap(c *gin.Context) {
	eng, role, ok := h.session(c)
	if !ok {
		return
	}
	if err := eng.ContinueFromSnap(c); err != nil {
		writeEngineErr(c, err)
		return
	}
	h.hub.Nudge(c, eng.Projection().CaseID, role)
	c.JSON(http.StatusOK, gin.H{"case": projectionView(eng.Projection())})
}

func (h Cases) Objection(c *gin.Context) {
	eng, role, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Type            string `json:"type" binding:"required,max=32"`
		Reason          string `json:"reason" binding:"required,min=1,max=1000"`
		AgainstQuestion bool   `json:"againstQuestion"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	reason, tok := h.clean(req.Reason)
	if !tok || reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid objection reason"})
		return
	}

	obj, ruling, err := eng.RaiseObjection(c, role, req.Type, reason, req.AgainstQuestion)
	if err != nil {
		writeEngineErr(c, err)
		return
	}
	h.hub.Nudge(c, eng.Projection().CaseID, role)
	c.JSON(http.StatusOK, gin.H{
		"objection": obj,
		"sustained": ruling.Sustained,
		"reason":    ruling.Reason,
	})
}

func (h Cases) Appeal(c *gin.Context) {
	eng, role, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Argument string `json:"argument" binding:"required,min=1,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	argument, tok := h.clean(req.Argument)
	if !tok || argument == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid appeal argument"})
		return
	}

	verdict, err := eng.SubmitAppeal(c, role, argument)
	if err != nil {
		writeEngineErr(c, err)
		return
	}
	h.hub.Nudge(c, eng.Projection().CaseID, role)
	c.JSON(http.StatusOK, gin.H{"verdict": verdict})
}

// Typing publishes an ephemeral typing indicator. Best effort by contract:
// losing one is harmless, so there is nothing to report on failure.
func (h Cases) Typing(c *gin.Context) {
	_, role, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Typing bool `json:"typing"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if h.rdb != nil {
		ch := broadcast.Open(h.rdb, c.Param("id"))
		ch.Send(c, "typing", gin.H{"party": role, "typing": req.Typing})
	}
	c.Status(http.StatusAccepted)
}

// TypingStream relays the ephemeral channel to the client as SSE.
func (h Cases) TypingStream(c *gin.Context) {
	_, _, ok := h.session(c)
	if !ok {
		return
	}
	if h.rdb == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"err": "live channel not configured"})
		return
	}

	ch := broadcast.Open(h.rdb, c.Param("id"))
	defer ch.Close()
	events := make(chan broadcast.Message, 8)
	ch.OnEvent(c.Request.Context(), func(m broadcast.Message) {
		select {
		case events <- m:
		default: // lossy by contract
		}
	})

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case m := <-events:
			c.SSEvent(m.Event, string(m.Payload))
			return true
		}
	})
}

func writeEngineErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrNotYourTurn),
		errors.Is(err, engine.ErrNoQuestion),
		errors.Is(err, engine.ErrObjectionSpent),
		errors.Is(err, engine.ErrNoVerdict),
		errors.Is(err, engine.ErrAlreadyAppealed),
		errors.Is(err, engine.ErrNotLoser):
		c.JSON(http.StatusConflict, gin.H{"err": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}
