package services

import (
	"math"
	"math/rand"

	"github.com/VIIT-EP/exam-service/internal/models"
)

// Standard balanced paper: 160 questions split 40/40/80 across subjects, each
// subject split 30/40/30 across difficulties with HARD absorbing rounding.
var balancedSubjectTargets = []struct {
	subject models.Subject
	count   int
}{
	{models.SubjectPhysics, 40},
	{models.SubjectChemistry, 40},
	{models.SubjectMathematics, 80},
}

var difficultyShares = []struct {
	difficulty models.Difficulty
	share      float64
}{
	{models.DifficultyEasy, 0.30},
	{models.DifficultyMedium, 0.40},
	{models.DifficultyHard, 0.30},
}

// QuotaCell is one normalized (subject, difficulty) slice of a custom paper
// request, optionally pinned to a single topic.
type QuotaCell struct {
	Subject    models.Subject
	Difficulty models.Difficulty
	Count      int
	Topic      string
}

// difficultyQuotas splits a subject target across difficulties. Each share is
// floored and the final difficulty takes whatever remains, so the quotas
// always sum to total exactly.
func difficultyQuotas(total int) map[models.Difficulty]int {
	quotas := make(map[models.Difficulty]int, len(difficultyShares))
	assigned := 0
	for i, ds := range difficultyShares {
		n := int(math.Floor(float64(total) * ds.share))
		if i == len(difficultyShares)-1 {
			n = total - assigned
		}
		quotas[ds.difficulty] = n
		assigned += n
	}
	return quotas
}

// PlanBalancedPaper draws the standard paper from the inventory snapshot.
// Any unmeetable stratum fails the whole plan; no partial papers.
func PlanBalancedPaper(inv *Inventory, rng *rand.Rand) ([]uint, error) {
	var picked []uint
	for _, target := range balancedSubjectTargets {
		quotas := difficultyQuotas(target.count)
		for _, ds := range difficultyShares {
			need := quotas[ds.difficulty]
			pool := inv.DifficultyPool(target.subject, ds.difficulty)
			if len(pool) < need {
				return nil, &DeficiencyError{
					Subject:    target.subject,
					Difficulty: ds.difficulty,
					Needed:     need,
					Available:  len(pool),
				}
			}
			picked = append(picked, sampleIDs(rng, pool, need)...)
		}
	}
	return shuffleIDs(rng, picked), nil
}

// PlanCustomPaper draws per-cell quotas. A cell pinned to a topic samples
// that topic alone; an unpinned cell is spread evenly across the topics
// present in its (subject, difficulty) pool, with the remainder going to a
// random prefix of them.
func PlanCustomPaper(inv *Inventory, cells []QuotaCell, rng *rand.Rand) ([]uint, error) {
	var picked []uint
	for _, cell := range cells {
		ids, err := planQuotaCell(inv, cell, rng)
		if err != nil {
			return nil, err
		}
		picked = append(picked, ids...)
	}
	return shuffleIDs(rng, picked), nil
}

func planQuotaCell(inv *Inventory, cell QuotaCell, rng *rand.Rand) ([]uint, error) {
	if cell.Topic != "" {
		pool := inv.TopicPool(cell.Subject, cell.Difficulty, cell.Topic)
		if len(pool) < cell.Count {
			return nil, &DeficiencyError{
				Subject:    cell.Subject,
				Difficulty: cell.Difficulty,
				Topic:      cell.Topic,
				Needed:     cell.Count,
				Available:  len(pool),
			}
		}
		return sampleIDs(rng, pool, cell.Count), nil
	}

	topics := inv.Topics(cell.Subject, cell.Difficulty)
	if len(topics) == 0 {
		return nil, &DeficiencyError{
			Subject:    cell.Subject,
			Difficulty: cell.Difficulty,
			Needed:     cell.Count,
			Available:  0,
		}
	}

	// Shuffle so the remainder does not always land on the same topics.
	topics = shuffleStrings(rng, topics)
	base := cell.Count / len(topics)
	remainder := cell.Count % len(topics)

	var picked []uint
	for i, topic := range topics {
		need := base
		if i < remainder {
			need++
		}
		if need == 0 {
			continue
		}
		pool := inv.TopicPool(cell.Subject, cell.Difficulty, topic)
		if len(pool) < need {
			return nil, &DeficiencyError{
				Subject:    cell.Subject,
				Difficulty: cell.Difficulty,
				Topic:      topic,
				Needed:     need,
				Available:  len(pool),
			}
		}
		picked = append(picked, sampleIDs(rng, pool, need)...)
	}
	return picked, nil
}
