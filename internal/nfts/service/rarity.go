package service

import (
	"context"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

type TraitFrequency struct {
	Trait      string  `json:"trait"`
	Configured float64 `json:"configured"`
	Observed   float64 `json:"observed"`
	Count      int     `json:"count"`
}

// LayerRarity compares configured rarities with what a collection drew.
// PValue is the chi-square goodness of fit; it is omitted when the layer
// has fewer than two weighted traits or no samples.
type LayerRarity struct {
	Layer      string           `json:"layer"`
	Samples    int              `json:"samples"`
	Traits     []TraitFrequency `json:"traits"`
	ChiSquare  *float64         `json:"chiSquare,omitempty"`
	PValue     *float64         `json:"pValue,omitempty"`
	Unexpected map[string]int   `json:"unexpected,omitempty"`
}

type RarityReport struct {
	ProjectID string        `json:"projectId"`
	Total     int           `json:"total"`
	Layers    []LayerRarity `json:"layers"`
}

// RarityReport audits the persisted variants of a project against the
// rarities currently configured on its layers.
func (a *Assembler) RarityReport(ctx context.Context, ownerID, projectID string) (*RarityReport, error) {
	p, err := a.projects.GetOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	counts, err := a.nfts.TraitCounts(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return buildRarityReport(p, counts), nil
}

func buildRarityReport(p *projdomain.Project, counts map[string]map[string]int) *RarityReport {
	report := &RarityReport{ProjectID: p.ID, Layers: make([]LayerRarity, 0, len(p.Layers))}

	for _, l := range p.Layers {
		if len(l.Traits) == 0 {
			continue
		}
		drawn := counts[l.Name]
		lr := LayerRarity{Layer: l.Name, Traits: make([]TraitFrequency, 0, len(l.Traits))}
		for _, n := range drawn {
			lr.Samples += n
		}
		if lr.Samples > report.Total {
			report.Total = lr.Samples
		}

		var obs, exp []float64
		known := make(map[string]bool, len(l.Traits))
		sum := l.RaritySum()
		for _, t := range l.Traits {
			known[t.Name] = true
			c := drawn[t.Name]
			tf := TraitFrequency{Trait: t.Name, Configured: t.Rarity, Count: c}
			if lr.Samples > 0 {
				tf.Observed = 100 * float64(c) / float64(lr.Samples)
			}
			lr.Traits = append(lr.Traits, tf)

			if t.Rarity > 0 && sum > 0 {
				obs = append(obs, float64(c))
				exp = append(exp, float64(lr.Samples)*t.Rarity/sum)
			}
		}
		for name, c := range drawn {
			if !known[name] {
				if lr.Unexpected == nil {
					lr.Unexpected = map[string]int{}
				}
				lr.Unexpected[name] = c
			}
		}

		if lr.Samples > 0 && len(obs) >= 2 {
			chi := stat.ChiSquare(obs, exp)
			pv := 1 - distuv.ChiSquared{K: float64(len(obs) - 1)}.CDF(chi)
			lr.ChiSquare = &chi
			lr.PValue = &pv
		}
		report.Layers = append(report.Layers, lr)
	}
	return report
}
