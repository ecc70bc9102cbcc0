// Package generator defines the contract of the generic duty-assignment
// generator consumed by the integration orchestrator, plus two
// implementations: an in-process genetic optimizer and a client for a remote
// generation service.
package generator

import (
	"context"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

// Weights balance the generator's objectives. The defaults mirror the
// orchestrator's historical tuning.
type Weights struct {
	Equity        float64 `json:"equity"`
	Preference    float64 `json:"preference"`
	QualityOfLife float64 `json:"qualityOfLife"`
}

func DefaultWeights() Weights {
	return Weights{Equity: 0.5, Preference: 0.3, QualityOfLife: 0.2}
}

// Request carries everything the generator may consider: the roster, its
// absence blackouts, assignments already on the plan, and the duty types to
// produce.
type Request struct {
	SiteID             string                   `json:"siteID"`
	Start              time.Time                `json:"start"`
	End                time.Time                `json:"end"`
	DutyTypes          []domain.DutyType        `json:"dutyTypes"`
	Roster             []*domain.StaffMember    `json:"roster"`
	Leaves             []*domain.Leave          `json:"leaves"`
	Existing           []*domain.DutyAssignment `json:"existing"`
	KeepExisting       bool                     `json:"keepExisting"`
	RespectPreferences bool                     `json:"respectPreferences"`
	Weights            Weights                  `json:"weights"`
}

type Violation struct {
	Message string `json:"message"`
}

// ValidationReport is the generator's own verdict on its proposals. Proposals
// are only persisted when Valid is true.
type ValidationReport struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

type Result struct {
	Proposals  []*domain.DutyAssignment `json:"proposals"`
	Validation ValidationReport         `json:"validation"`
}

// Engine is the black-box generator contract. The orchestrator treats every
// implementation the same way and never retries a failed call.
type Engine interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
}
