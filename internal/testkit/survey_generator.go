// Package testkit builds deterministic synthetic survey studies for
// tests, examples, and the CLI's inspect command.
package testkit

import (
	"fmt"
	"math/rand"

	"goxtab/domain/banner"
	"goxtab/domain/survey"
)

// SurveyGeneratorConfig configures the synthetic study generator
type SurveyGeneratorConfig struct {
	RespondentCount int     `json:"respondent_count"`
	MissingRate     float64 `json:"missing_rate"`  // chance a respondent skips a question
	WeightSpread    float64 `json:"weight_spread"` // 0 = uniform weights, 1 = wide rim-style spread
	Seed            int64   `json:"seed"`
}

// DefaultSurveyConfig returns sensible defaults for a small study
func DefaultSurveyConfig() SurveyGeneratorConfig {
	return SurveyGeneratorConfig{
		RespondentCount: 600,
		MissingRate:     0.05,
		WeightSpread:    0.4,
		Seed:            42,
	}
}

// SurveyGenerator generates a complete synthetic study: questionnaire,
// respondent records, weights, and a demographic banner.
type SurveyGenerator struct {
	config SurveyGeneratorConfig
	rng    *rand.Rand
}

// NewSurveyGenerator creates a seeded generator
func NewSurveyGenerator(config SurveyGeneratorConfig) *SurveyGenerator {
	return &SurveyGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Questions returns the synthetic questionnaire: one of each processor
// type plus a composite over the two rating questions.
func (g *SurveyGenerator) Questions() []survey.Question {
	return []survey.Question{
		{
			Code: "Q1", Text: "Which brand did you buy most recently?", Type: survey.TypeSingle,
			Options: []survey.Option{
				{Code: "alpha", Label: "Alpha"},
				{Code: "beta", Label: "Beta"},
				{Code: "gamma", Label: "Gamma"},
				{Code: "other", Label: "Other"},
			},
		},
		{
			Code: "Q2", Text: "Which of these have you heard of?", Type: survey.TypeMulti,
			Options: []survey.Option{
				{Code: "alpha", Label: "Alpha"},
				{Code: "beta", Label: "Beta"},
				{Code: "gamma", Label: "Gamma"},
				{Code: "delta", Label: "Delta"},
			},
		},
		{
			Code: "Q3", Text: "How satisfied are you overall?", Type: survey.TypeNumeric,
			Options: ratingOptions(5),
			Scale:   &survey.ScaleBounds{Min: 1, Max: 5},
		},
		{
			Code: "Q4", Text: "How good is the value for money?", Type: survey.TypeNumeric,
			Options: ratingOptions(5),
			Scale:   &survey.ScaleBounds{Min: 1, Max: 5},
		},
		{
			Code: "Q5", Text: "How likely are you to recommend us?", Type: survey.TypeNPS,
			Scale: &survey.ScaleBounds{Min: 0, Max: 10},
		},
		{
			Code: "Q6", Text: "Rank these factors by importance", Type: survey.TypeRank,
			Options: []survey.Option{
				{Code: "price", Label: "Price"},
				{Code: "quality", Label: "Quality"},
				{Code: "service", Label: "Service"},
			},
		},
		{
			Code: "IDX1", Text: "Experience Index", Type: survey.TypeComposite,
			Composite: &survey.CompositeSpec{
				Terms: []survey.CompositeTerm{
					{Source: "Q3", Weight: 2},
					{Source: "Q4", Weight: 1},
				},
				Aggregate: "mean",
				Rescale:   true,
			},
		},
	}
}

// BannerSpec returns the standard demographic banner for the study
func (g *SurveyGenerator) BannerSpec() banner.Spec {
	return banner.Spec{Entries: []banner.Entry{
		{ID: "male", Label: "Male", Source: "gender", Accept: []string{"m"}},
		{ID: "female", Label: "Female", Source: "gender", Accept: []string{"f"}},
		{ID: "young", Label: "18-34", Source: "agegroup", Accept: []string{"18-24", "25-34"}},
		{ID: "old", Label: "35+", Source: "agegroup", Accept: []string{"35-54", "55+"}},
	}}
}

// Generate builds the respondent records and weight vector. Younger
// respondents lean toward brand Alpha and rate higher, so subgroup
// differences are real, not noise.
func (g *SurveyGenerator) Generate() (survey.Dataset, survey.Weights) {
	records := make([]survey.Record, g.config.RespondentCount)
	weights := make(survey.Weights, g.config.RespondentCount)

	for i := range records {
		rec := survey.Record{}

		gender := "m"
		if g.rng.Float64() < 0.52 {
			gender = "f"
		}
		rec["gender"] = survey.CodeValue(gender)

		ageGroups := []string{"18-24", "25-34", "35-54", "55+"}
		age := ageGroups[g.rng.Intn(len(ageGroups))]
		rec["agegroup"] = survey.CodeValue(age)
		young := age == "18-24" || age == "25-34"

		if g.answers() {
			rec["Q1"] = survey.CodeValue(g.pickBrand(young))
		}
		if g.answers() {
			rec["Q2"] = survey.CodeSet(g.pickAwareness(young)...)
		}
		lift := 0.0
		if young {
			lift = 0.6
		}
		if g.answers() {
			rec["Q3"] = survey.Num(g.rating(5, 3.4+lift))
		}
		if g.answers() {
			rec["Q4"] = survey.Num(g.rating(5, 3.1+lift))
		}
		if g.answers() {
			rec["Q5"] = survey.Num(g.rating(11, 7.2+lift) - 1)
		}
		if g.answers() {
			for item, rank := range g.ranking([]string{"price", "quality", "service"}) {
				rec["Q6_"+item] = survey.Num(float64(rank))
			}
		}

		records[i] = rec
		weights[i] = g.weight()
	}

	return survey.Dataset{Records: records}, weights
}

// GenerateUniform builds the same records with all weights 1.0
func (g *SurveyGenerator) GenerateUniform() (survey.Dataset, survey.Weights) {
	data, _ := g.Generate()
	return data, survey.Uniform(data.Len())
}

func (g *SurveyGenerator) answers() bool {
	return g.rng.Float64() >= g.config.MissingRate
}

func (g *SurveyGenerator) pickBrand(young bool) string {
	r := g.rng.Float64()
	if young {
		switch {
		case r < 0.45:
			return "alpha"
		case r < 0.70:
			return "beta"
		case r < 0.90:
			return "gamma"
		}
		return "other"
	}
	switch {
	case r < 0.25:
		return "alpha"
	case r < 0.55:
		return "beta"
	case r < 0.85:
		return "gamma"
	}
	return "other"
}

func (g *SurveyGenerator) pickAwareness(young bool) []string {
	brands := []string{"alpha", "beta", "gamma", "delta"}
	chances := []float64{0.8, 0.7, 0.5, 0.2}
	if young {
		chances = []float64{0.9, 0.6, 0.5, 0.4}
	}
	var picked []string
	for bi, brand := range brands {
		if g.rng.Float64() < chances[bi] {
			picked = append(picked, brand)
		}
	}
	if len(picked) == 0 {
		picked = []string{brands[g.rng.Intn(len(brands))]}
	}
	return picked
}

// rating draws an integer 1..points around a center value
func (g *SurveyGenerator) rating(points int, center float64) float64 {
	x := center + g.rng.NormFloat64()*1.3
	v := int(x + 0.5)
	if v < 1 {
		v = 1
	}
	if v > points {
		v = points
	}
	return float64(v)
}

// ranking returns a random permutation as item -> rank position (1-based)
func (g *SurveyGenerator) ranking(items []string) map[string]int {
	perm := g.rng.Perm(len(items))
	ranks := make(map[string]int, len(items))
	for pos, idx := range perm {
		ranks[items[idx]] = pos + 1
	}
	return ranks
}

// weight draws a rim-style weight around 1.0; spread 0 collapses to uniform
func (g *SurveyGenerator) weight() float64 {
	if g.config.WeightSpread == 0 {
		return 1.0
	}
	w := 1.0 + g.rng.NormFloat64()*g.config.WeightSpread
	if w < 0.2 {
		w = 0.2
	}
	if w > 3.0 {
		w = 3.0
	}
	return w
}

// ratingOptions builds 1..n scale options
func ratingOptions(n int) []survey.Option {
	opts := make([]survey.Option, n)
	for i := range opts {
		v := i + 1
		opts[i] = survey.Option{
			Code:     fmt.Sprintf("%d", v),
			Label:    fmt.Sprintf("%d", v),
			Value:    float64(v),
			HasValue: true,
		}
	}
	return opts
}
