package generator

import (
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

// gene is the assignment decision for one (date, dutyType) slot. An empty
// staffID means the slot could not be covered.
type gene struct {
	date     time.Time
	dutyType domain.DutyType
	staffID  string
}

// chromosome is a full candidate plan for the requested range.
type chromosome struct {
	genes   []gene
	fitness float64
}

// Parameters tune the genetic search.
type Parameters struct {
	PopulationSize int
	MaxGenerations int
	CrossoverRate  float64
	MutationRate   float64
	EliteCount     int
}

func DefaultParameters() Parameters {
	return Parameters{
		PopulationSize: 80,
		MaxGenerations: 200,
		CrossoverRate:  0.8,
		MutationRate:   0.05,
		EliteCount:     4,
	}
}
