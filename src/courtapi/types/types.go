package types

import "time"

// Case phases. Monotonic in normal operation; the objection interrupt never
// changes the phase field.
type Phase string

const (
	PhaseWaiting      Phase = "waiting"
	PhaseStatements   Phase = "statements"
	PhaseCrossExam    Phase = "crossExam"
	PhaseSnapJudgment Phase = "snapJudgment"
	PhaseVerdict      Phase = "verdict"
)

// Party identifies one of the two disputants. A is the filer, B joins.
type Party string

const (
	PartyA Party = "A"
	PartyB Party = "B"
)

// Opponent returns the other party.
func (p Party) Opponent() Party {
	if p == PartyA {
		return PartyB
	}
	return PartyA
}

// Credibility bounds. Scores start at InitialCredibility and are clamped to
// [CredibilityFloor, CredibilityCeiling] after every evaluator-driven update.
const (
	InitialCredibility = 100
	CredibilityFloor   = 5
	CredibilityCeiling = 95
)

// Cases
type Case struct {
	ID            string `gorm:"primaryKey;size:36"`
	RoomCode      string `gorm:"size:6;index;not null"`
	PartyAName    string `gorm:"size:64;not null"`
	PartyBName    string `gorm:"size:64"`
	PartyASession string `gorm:"size:36"`
	PartyBSession string `gorm:"size:36"` // empty until party B joins; the join gate

	StatementA string `gorm:"type:text"`
	StatementB string `gorm:"type:text"`

	Phase           Phase  `gorm:"size:16;not null"`
	CurrentTurn     Party  `gorm:"size:1"` // statements phase only
	ExamRound       int    `gorm:"default:0"`
	ExamTarget      Party  `gorm:"size:1"`
	CurrentQuestion string `gorm:"type:text"` // empty = no question pending

	CredibilityA int `gorm:"default:100"`
	CredibilityB int `gorm:"default:100"`

	ObjectionUsedA bool `gorm:"default:false"`
	ObjectionUsedB bool `gorm:"default:false"`

	// Verdict fields; WinnerName empty means no verdict yet. An appeal ruling
	// may amend these in place but never the phase.
	VerdictWinner    string `gorm:"size:64"`
	VerdictLoser     string `gorm:"size:64"`
	VerdictSummary   string `gorm:"type:text"`
	VerdictReasoning string `gorm:"type:text"`
	VerdictIsSnap    bool   `gorm:"default:false"`
	SnapWinner       string `gorm:"size:64"` // provisional snap-judgment payload
	SnapReason       string `gorm:"type:text"`
	Appealed         bool   `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasVerdict reports whether a verdict (full or snap) has been recorded.
func (c *Case) HasVerdict() bool { return c.VerdictWinner != "" }

// SessionFor returns the stored session identifier bound to a party slot.
func (c *Case) SessionFor(p Party) string {
	if p == PartyA {
		return c.PartyASession
	}
	return c.PartyBSession
}

// NameFor returns the display name for a party slot.
func (c *Case) NameFor(p Party) string {
	if p == PartyA {
		return c.PartyAName
	}
	return c.PartyBName
}

// Responses are append-only testimony; creation order is canonical.
type Response struct {
	ID               uint64 `gorm:"primaryKey"`
	CaseID           string `gorm:"size:36;index;not null"`
	Round            int    `gorm:"not null"`
	Party            Party  `gorm:"size:1;not null"` // answering party
	Question         string `gorm:"type:text"`
	Answer           string `gorm:"type:text;not null"`
	IsFollowUp       bool   `gorm:"default:false"`
	CredibilityDelta int    `gorm:"default:0"`
	CreatedAt        time.Time
}

// Objections are append-only; at most one per party per case, enforced by the
// usage flags on Case.
type Objection struct {
	ID              uint64 `gorm:"primaryKey"`
	CaseID          string `gorm:"size:36;index;not null"`
	Objector        Party  `gorm:"size:1;not null"`
	Target          string `gorm:"size:64"` // "Judge" or the opposing party's name
	Type            string `gorm:"size:32"`
	Reason          string `gorm:"type:text"`
	AgainstQuestion bool   `gorm:"default:false"`
	Ruled           bool   `gorm:"default:false"`
	Sustained       bool   `gorm:"default:false"`
	RulingReason    string `gorm:"type:text"`
	CreatedAt       time.Time
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
