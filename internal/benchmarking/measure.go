package benchmarking

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
)

// Measure rates one ordered result list for a query.
type Measure interface {
	Name() string
	Evaluate(keys []string, results []index.Posting, truth *GroundTruth) float64
}

// PrecisionAtK is the share of relevant records among the first K results.
// Fewer than K results divide by the number actually present; no results
// give 0.
type PrecisionAtK struct {
	K int
}

func (m PrecisionAtK) Name() string { return fmt.Sprintf("P@%d", m.K) }

func (m PrecisionAtK) Evaluate(keys []string, results []index.Posting, truth *GroundTruth) float64 {
	inspected := min(m.K, len(results))
	if inspected <= 0 {
		return 0
	}
	relevant := 0
	for _, p := range results[:inspected] {
		if truth.IsRelevant(keys, p.RecordID) {
			relevant++
		}
	}
	return float64(relevant) / float64(inspected)
}

// PrecisionAtR is PrecisionAtK with K set to the query's number of relevant
// records.
type PrecisionAtR struct{}

func (PrecisionAtR) Name() string { return "P@R" }

func (PrecisionAtR) Evaluate(keys []string, results []index.Posting, truth *GroundTruth) float64 {
	return PrecisionAtK{K: truth.RelevantCount(keys)}.Evaluate(keys, results, truth)
}

// AveragePrecision averages P@i over the positions i of relevant results,
// dividing by the total number of relevant records so unretrieved ones
// count as zero.
type AveragePrecision struct{}

func (AveragePrecision) Name() string { return "AP" }

func (AveragePrecision) Evaluate(keys []string, results []index.Posting, truth *GroundTruth) float64 {
	total := truth.RelevantCount(keys)
	if total == 0 {
		return 0
	}
	var sum float64
	found := 0
	for i, p := range results {
		if found == total {
			break
		}
		if truth.IsRelevant(keys, p.RecordID) {
			found++
			sum += float64(found) / float64(i+1)
		}
	}
	return sum / float64(total)
}

// MeasureSet evaluates several measures at once, in insertion order.
type MeasureSet struct {
	measures []Measure
}

func NewMeasureSet(measures ...Measure) *MeasureSet {
	return &MeasureSet{measures: measures}
}

func (s *MeasureSet) Add(m Measure) {
	s.measures = append(s.measures, m)
}

func (s *MeasureSet) Measures() []Measure {
	return s.measures
}

// Evaluate returns each measure's value keyed by its name.
func (s *MeasureSet) Evaluate(keys []string, results []index.Posting, truth *GroundTruth) map[string]float64 {
	out := make(map[string]float64, len(s.measures))
	for _, m := range s.measures {
		out[m.Name()] = m.Evaluate(keys, results, truth)
	}
	return out
}

// Mean is the arithmetic mean of values, 0 when empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Result is the mean of one measure over every benchmarked query.
type Result struct {
	Measure string
	Mean    float64
	Queries int
}

// Run searches every ground-truth query and averages each measure.
func Run(search func(keys []string) []index.Posting, truth *GroundTruth, set *MeasureSet) []Result {
	values := make(map[string][]float64, len(set.measures))
	queries := truth.Queries()
	for _, keys := range queries {
		results := search(keys)
		for name, v := range set.Evaluate(keys, results, truth) {
			values[name] = append(values[name], v)
		}
	}
	out := make([]Result, 0, len(set.measures))
	for _, m := range set.measures {
		out = append(out, Result{
			Measure: m.Name(),
			Mean:    Mean(values[m.Name()]),
			Queries: len(queries),
		})
	}
	return out
}
