package server

import (
	"time"

	"gamehub-backend/internal/domain"
	"gamehub-backend/internal/service"
)

// ruleDTO is the wire shape of one rule; "name" carries the operator,
// matching the dashboard's vocabulary.
type ruleDTO struct {
	Name     string   `json:"name"`
	Field    string   `json:"field"`
	Operands []string `json:"operands"`
	Negate   bool     `json:"negate"`
	CastType string   `json:"castType"`
}

func (r ruleDTO) toDomain() domain.Rule {
	return domain.Rule{
		Operator: domain.Operator(r.Name),
		Field:    r.Field,
		Operands: r.Operands,
		Negate:   r.Negate,
		CastType: domain.CastType(r.CastType),
	}
}

func toRuleDTO(r domain.Rule) ruleDTO {
	operands := r.Operands
	if operands == nil {
		operands = []string{}
	}
	return ruleDTO{
		Name:     string(r.Operator),
		Field:    r.Field,
		Operands: operands,
		Negate:   r.Negate,
		CastType: string(r.CastType),
	}
}

type groupResponse struct {
	ID          string    `json:"id"`
	GameID      string    `json:"gameId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	RuleMode    string    `json:"ruleMode"`
	Rules       []ruleDTO `json:"rules"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toGroupResponse(g domain.Group, memberCount int) groupResponse {
	rules := make([]ruleDTO, 0, len(g.Rules))
	for _, r := range g.Rules {
		rules = append(rules, toRuleDTO(r))
	}
	return groupResponse{
		ID:          g.ID,
		GameID:      g.GameID,
		Name:        g.Name,
		Description: g.Description,
		RuleMode:    string(g.RuleMode),
		Rules:       rules,
		MemberCount: memberCount,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

type playerResponse struct {
	ID         string            `json:"id"`
	GameID     string            `json:"gameId"`
	DevBuild   bool              `json:"devBuild"`
	Props      map[string]string `json:"props"`
	CreatedAt  time.Time         `json:"createdAt"`
	LastSeenAt time.Time         `json:"lastSeenAt"`
}

func toPlayerResponse(p domain.Player) playerResponse {
	props := p.Props
	if props == nil {
		props = map[string]string{}
	}
	return playerResponse{
		ID:         p.ID,
		GameID:     p.GameID,
		DevBuild:   p.DevBuild,
		Props:      props,
		CreatedAt:  p.CreatedAt,
		LastSeenAt: p.LastSeenAt,
	}
}

type groupRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	RuleMode    string    `json:"ruleMode"`
	Rules       []ruleDTO `json:"rules"`
}

func (g groupRequest) toInput() service.GroupInput {
	rules := make([]domain.Rule, 0, len(g.Rules))
	for _, r := range g.Rules {
		rules = append(rules, r.toDomain())
	}
	return service.GroupInput{
		Name:        g.Name,
		Description: g.Description,
		RuleMode:    domain.RuleMode(g.RuleMode),
		Rules:       rules,
	}
}

type createGameRequest struct {
	Name string `json:"name"`
}

type createPlayerRequest struct {
	DevBuild bool              `json:"devBuild"`
	Props    map[string]string `json:"props"`
}

type patchPlayerRequest struct {
	SetProps    map[string]string `json:"setProps"`
	DeleteProps []string          `json:"deleteProps"`
	DevBuild    *bool             `json:"devBuild"`
	TouchSeen   bool              `json:"touchSeen"`
}
