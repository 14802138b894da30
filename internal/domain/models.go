package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a requested entity does
// not exist. Handlers map it to a 404.
var ErrNotFound = errors.New("not found")

type Game struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Player is a game-owned identity plus the free-form key/value props
// attached to it by player-facing write paths.
type Player struct {
	ID         string
	GameID     string
	DevBuild   bool
	Props      map[string]string
	CreatedAt  time.Time
	LastSeenAt time.Time
	UpdatedAt  time.Time
}

// RuleMode selects how a group combines its rules.
type RuleMode string

const (
	RuleModeAnd RuleMode = "AND"
	RuleModeOr  RuleMode = "OR"
)

// Operator names one rule condition family.
type Operator string

const (
	OperatorEquals Operator = "EQUALS"
	OperatorSet    Operator = "SET"
	OperatorGT     Operator = "GT"
	OperatorGTE    Operator = "GTE"
	OperatorLT     Operator = "LT"
	OperatorLTE    Operator = "LTE"
)

// CastType says how operands and the resolved player value are
// interpreted when a rule is compared.
type CastType string

const (
	CastChar     CastType = "CHAR"
	CastDouble   CastType = "DOUBLE"
	CastDatetime CastType = "DATETIME"
)

// Rule is one boolean condition inside a group. Rules are owned by
// their group and deleted with it.
type Rule struct {
	ID       string
	GroupID  string
	Position int
	Operator Operator
	Field    string
	Operands []string
	Negate   bool
	CastType CastType
}

// Membership-change event types forwarded to integrations.
const (
	EventGroupEntered = "player-group.entered"
	EventGroupLeft    = "player-group.left"
)

// MembershipEvent records one player entering or leaving one group.
type MembershipEvent struct {
	Type       string    `json:"type"`
	GameID     string    `json:"gameId"`
	GroupID    string    `json:"groupId"`
	PlayerID   string    `json:"playerId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Group is a named segmentation rule set. Its membership set is
// derived by the synchronizer, never edited directly.
type Group struct {
	ID          string
	GameID      string
	Name        string
	Description string
	RuleMode    RuleMode
	Rules       []Rule
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
