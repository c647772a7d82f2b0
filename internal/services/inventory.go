package services

import (
	"math/rand"
	"sort"

	"github.com/VIIT-EP/exam-service/internal/models"
)

// Inventory indexes a question pool by the strata sampling draws from.
// Built once per assembly from a single repository read, so every quota in a
// request is judged against the same snapshot.
type Inventory struct {
	byDifficulty map[models.Subject]map[models.Difficulty][]uint
	byTopic      map[models.Subject]map[models.Difficulty]map[string][]uint
}

func BuildInventory(questions []*models.Question) *Inventory {
	inv := &Inventory{
		byDifficulty: make(map[models.Subject]map[models.Difficulty][]uint),
		byTopic:      make(map[models.Subject]map[models.Difficulty]map[string][]uint),
	}
	for _, q := range questions {
		if inv.byDifficulty[q.Subject] == nil {
			inv.byDifficulty[q.Subject] = make(map[models.Difficulty][]uint)
			inv.byTopic[q.Subject] = make(map[models.Difficulty]map[string][]uint)
		}
		if inv.byTopic[q.Subject][q.Difficulty] == nil {
			inv.byTopic[q.Subject][q.Difficulty] = make(map[string][]uint)
		}
		inv.byDifficulty[q.Subject][q.Difficulty] = append(inv.byDifficulty[q.Subject][q.Difficulty], q.ID)
		inv.byTopic[q.Subject][q.Difficulty][q.Topic] = append(inv.byTopic[q.Subject][q.Difficulty][q.Topic], q.ID)
	}
	return inv
}

// Topics returns the topic names present in one (subject, difficulty) cell in
// deterministic order. Questions with no topic contribute the empty-string
// topic.
func (inv *Inventory) Topics(subject models.Subject, difficulty models.Difficulty) []string {
	topics := make([]string, 0, len(inv.byTopic[subject][difficulty]))
	for t := range inv.byTopic[subject][difficulty] {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

func (inv *Inventory) TopicPool(subject models.Subject, difficulty models.Difficulty, topic string) []uint {
	return inv.byTopic[subject][difficulty][topic]
}

func (inv *Inventory) DifficultyPool(subject models.Subject, difficulty models.Difficulty) []uint {
	return inv.byDifficulty[subject][difficulty]
}

// SubjectCount is the total pool size for a subject.
func (inv *Inventory) SubjectCount(subject models.Subject) int {
	n := 0
	for _, ids := range inv.byDifficulty[subject] {
		n += len(ids)
	}
	return n
}

// sampleIDs draws n ids uniformly without replacement. The input slice is not
// modified. Callers must have checked n <= len(ids).
func sampleIDs(rng *rand.Rand, ids []uint, n int) []uint {
	shuffled := shuffleIDs(rng, ids)
	return shuffled[:n]
}

// shuffleIDs returns a Fisher-Yates shuffled copy.
func shuffleIDs(rng *rand.Rand, ids []uint) []uint {
	out := make([]uint, len(ids))
	copy(out, ids)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func shuffleStrings(rng *rand.Rand, values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
