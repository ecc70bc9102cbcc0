package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
	"github.com/google/uuid"
)

// Genetic is the in-process implementation of the generator contract: a
// genetic search over per-slot staff choices, penalizing uncovered slots,
// uneven duty distribution and back-to-back duties.
type Genetic struct {
	params Parameters
}

func NewGenetic(params Parameters) *Genetic {
	return &Genetic{params: params}
}

// run holds the per-request search state, so one Genetic value can serve
// concurrent requests.
type run struct {
	req        *Request
	slots      []gene
	candidates [][]string       // per slot index
	baseCounts map[string]int   // duty counts already on the plan
	busyDates  map[string]bool  // staffID|date taken by an existing duty
	leaveDays  map[string]bool  // staffID|date blacked out by leave
}

func (g *Genetic) Generate(ctx context.Context, req *Request) (*Result, error) {
	r := newRun(req)

	if len(r.slots) == 0 {
		return &Result{
			Proposals:  []*domain.DutyAssignment{},
			Validation: ValidationReport{Valid: true, Violations: []Violation{}},
		}, nil
	}

	pop := make([]*chromosome, g.params.PopulationSize)
	for i := range pop {
		pop[i] = r.randomChromosome()
		r.calcFitness(pop[i], req.Weights)
	}

	best := &chromosome{fitness: -math.MaxFloat64}

	for gen := 0; gen < g.params.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, ch := range pop {
			if ch.fitness > best.fitness {
				best = ch.clone()
			}
		}

		// Breed the next generation: keep the elite, then crossover and
		// mutate roulette-selected parents.
		sort.Slice(pop, func(i, j int) bool { return pop[i].fitness > pop[j].fitness })

		newPop := make([]*chromosome, 0, g.params.PopulationSize)
		for i := 0; i < g.params.EliteCount && i < len(pop); i++ {
			newPop = append(newPop, pop[i].clone())
		}

		for len(newPop) < g.params.PopulationSize {
			p1 := selectByRoulette(pop).clone()
			p2 := selectByRoulette(pop).clone()

			if rand.Float64() < g.params.CrossoverRate {
				singlePointCrossover(p1, p2)
			}

			r.mutate(p1, g.params.MutationRate)
			r.mutate(p2, g.params.MutationRate)

			newPop = append(newPop, p1)
			if len(newPop) < g.params.PopulationSize {
				newPop = append(newPop, p2)
			}
		}

		pop = newPop
		for _, ch := range pop {
			r.calcFitness(ch, req.Weights)
		}
	}

	for _, ch := range pop {
		if ch.fitness > best.fitness {
			best = ch.clone()
		}
	}

	return r.buildResult(best), nil
}

func newRun(req *Request) *run {
	r := &run{
		req:        req,
		baseCounts: make(map[string]int),
		busyDates:  make(map[string]bool),
		leaveDays:  make(map[string]bool),
	}

	for _, existing := range req.Existing {
		r.baseCounts[existing.StaffID]++
		r.busyDates[staffDayKey(existing.StaffID, existing.Date)] = true
	}

	for _, leave := range req.Leaves {
		for d := dateOnly(leave.StartDate); !d.After(dateOnly(leave.EndDate)); d = d.AddDate(0, 0, 1) {
			r.leaveDays[staffDayKey(leave.StaffID, d)] = true
		}
	}

	for d := dateOnly(req.Start); !d.After(dateOnly(req.End)); d = d.AddDate(0, 0, 1) {
		for _, dutyType := range req.DutyTypes {
			if req.KeepExisting && r.slotAlreadyCovered(d, dutyType) {
				continue
			}
			r.slots = append(r.slots, gene{date: d, dutyType: dutyType})
			r.candidates = append(r.candidates, r.candidatesFor(d, dutyType))
		}
	}

	return r
}

func (r *run) slotAlreadyCovered(date time.Time, dutyType domain.DutyType) bool {
	for _, existing := range r.req.Existing {
		if existing.Type == dutyType && dateOnly(existing.Date).Equal(date) {
			return true
		}
	}
	return false
}

// candidatesFor lists the staff eligible for a slot: right role, active, and
// not blacked out by an approved leave or an existing duty that day.
func (r *run) candidatesFor(date time.Time, dutyType domain.DutyType) []string {
	var ids []string
	for _, staff := range r.req.Roster {
		if !staff.IsActive || !roleEligible(staff.Role, dutyType) {
			continue
		}
		key := staffDayKey(staff.ID, date)
		if r.leaveDays[key] || r.busyDates[key] {
			continue
		}
		ids = append(ids, staff.ID)
	}
	return ids
}

// Gardes are covered by anesthetists; astreintes may also fall to IADE.
func roleEligible(role domain.StaffRole, dutyType domain.DutyType) bool {
	switch dutyType {
	case domain.DutyGarde:
		return role == domain.RoleMAR
	case domain.DutyAstreinte:
		return role == domain.RoleMAR || role == domain.RoleIADE
	default:
		return false
	}
}

func (r *run) randomChromosome() *chromosome {
	genes := make([]gene, len(r.slots))
	copy(genes, r.slots)

	for i := range genes {
		if c := r.candidates[i]; len(c) > 0 {
			genes[i].staffID = c[rand.Intn(len(c))]
		}
	}

	return &chromosome{genes: genes}
}

// calcFitness scores a chromosome:
//
//	fitness = -10*uncovered - equity*variance - qualityOfLife*backToBack
//
// uncovered counts slots without staff, variance measures how unevenly duty
// counts spread over the roster (existing duties included as the baseline),
// and backToBack counts consecutive-day duty pairs for the same person.
func (r *run) calcFitness(ch *chromosome, w Weights) {
	counts := make(map[string]int, len(r.baseCounts))
	for staffID, n := range r.baseCounts {
		counts[staffID] = n
	}

	dutyDates := make(map[string][]time.Time)
	for _, existing := range r.req.Existing {
		dutyDates[existing.StaffID] = append(dutyDates[existing.StaffID], dateOnly(existing.Date))
	}

	uncovered := 0
	for _, gn := range ch.genes {
		if gn.staffID == "" {
			uncovered++
			continue
		}
		counts[gn.staffID]++
		dutyDates[gn.staffID] = append(dutyDates[gn.staffID], gn.date)
	}

	variance := 0.0
	if len(counts) > 0 {
		mean := 0.0
		for _, n := range counts {
			mean += float64(n)
		}
		mean /= float64(len(counts))
		for _, n := range counts {
			variance += math.Pow(float64(n)-mean, 2)
		}
		variance /= float64(len(counts))
	}

	backToBack := 0
	for _, dates := range dutyDates {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		for i := 1; i < len(dates); i++ {
			if dates[i].Sub(dates[i-1]) < 48*time.Hour {
				backToBack++
			}
		}
	}

	ch.fitness = -10*float64(uncovered) - w.Equity*variance - w.QualityOfLife*float64(backToBack)
}

// selectByRoulette spins a wheel over the population. Fitnesses are negative,
// so they are shifted by the generation minimum before building the wheel.
func selectByRoulette(pop []*chromosome) *chromosome {
	minFit := pop[0].fitness
	for _, ch := range pop {
		if ch.fitness < minFit {
			minFit = ch.fitness
		}
	}

	sumFit := 0.0
	for _, ch := range pop {
		sumFit += ch.fitness - minFit + 1
	}

	pick := rand.Float64() * sumFit
	partial := 0.0
	for _, ch := range pop {
		partial += ch.fitness - minFit + 1
		if partial >= pick {
			return ch
		}
	}

	return pop[len(pop)-1]
}

func singlePointCrossover(ch1, ch2 *chromosome) {
	if len(ch1.genes) != len(ch2.genes) || len(ch1.genes) == 0 {
		return
	}

	point := rand.Intn(len(ch1.genes))
	for i := point; i < len(ch1.genes); i++ {
		ch1.genes[i].staffID, ch2.genes[i].staffID = ch2.genes[i].staffID, ch1.genes[i].staffID
	}
}

func (r *run) mutate(ch *chromosome, rate float64) {
	for i := range ch.genes {
		if rand.Float64() > rate {
			continue
		}
		if c := r.candidates[i]; len(c) > 0 {
			ch.genes[i].staffID = c[rand.Intn(len(c))]
		}
	}
}

func (ch *chromosome) clone() *chromosome {
	genes := make([]gene, len(ch.genes))
	copy(genes, ch.genes)
	return &chromosome{genes: genes, fitness: ch.fitness}
}

func (r *run) buildResult(best *chromosome) *Result {
	result := &Result{
		Proposals:  []*domain.DutyAssignment{},
		Validation: ValidationReport{Violations: []Violation{}},
	}

	now := time.Now()
	assignedDates := make(map[string]int)
	for key := range r.busyDates {
		assignedDates[key]++
	}

	for _, gn := range best.genes {
		if gn.staffID == "" {
			result.Validation.Violations = append(result.Validation.Violations, Violation{
				Message: fmt.Sprintf("Aucun candidat disponible pour %s le %s", gn.dutyType, gn.date.Format("02/01/2006")),
			})
			continue
		}

		key := staffDayKey(gn.staffID, gn.date)
		assignedDates[key]++
		if assignedDates[key] > 1 {
			result.Validation.Violations = append(result.Validation.Violations, Violation{
				Message: fmt.Sprintf("%s est affecté plusieurs fois le %s", gn.staffID, gn.date.Format("02/01/2006")),
			})
		}
		if r.leaveDays[key] {
			result.Validation.Violations = append(result.Validation.Violations, Violation{
				Message: fmt.Sprintf("%s est en congé le %s", gn.staffID, gn.date.Format("02/01/2006")),
			})
		}

		startTime, endTime := dutyHours(gn.dutyType)
		result.Proposals = append(result.Proposals, &domain.DutyAssignment{
			ID:        uuid.NewString(),
			SiteID:    r.req.SiteID,
			StaffID:   gn.staffID,
			Date:      gn.date,
			Type:      gn.dutyType,
			Status:    domain.DutyStatusPlanned,
			StartTime: startTime,
			EndTime:   endTime,
			Notes:     fmt.Sprintf("Généré automatiquement le %s", now.Format("02/01/2006 15:04")),
		})
	}

	result.Validation.Valid = len(result.Validation.Violations) == 0
	return result
}

func dutyHours(dutyType domain.DutyType) (string, string) {
	if dutyType == domain.DutyGarde {
		return "20:00:00", "08:00:00"
	}
	return "08:00:00", "20:00:00"
}

func staffDayKey(staffID string, date time.Time) string {
	return staffID + "|" + dateOnly(date).Format("2006-01-02")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
