// Package resume decides, given a previous run's per-unit outcomes, which
// units a retry actually has to process again. It never looks at portal
// internal ids: units are matched across runs by normalized display name,
// since the internal id is not stable between sessions.
package resume

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	// resume is recommended once more than this fraction of units failed
	failedFractionThreshold = 0.10
	// or once more than this many units failed, whatever the fraction
	failedCountFloor = 5

	// names at least this similar are flagged as probable renames
	nearMatchSimilarity = 0.93
)

// ContentItem is one category of extracted content inside a unit's result.
type ContentItem struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// UnitResult is the recorded outcome of one unit within one run.
type UnitResult struct {
	Name        string         `json:"name"`
	ExternalID  string         `json:"external_id"`
	Error       string         `json:"error,omitempty"`
	Outcome     string         `json:"outcome,omitempty"`
	Checksum    string         `json:"checksum,omitempty"`
	Items       []ContentItem  `json:"items,omitempty"`
	Descriptive map[string]any `json:"descriptive,omitempty"`
}

// Succeeded reports whether a previous attempt can be skipped on retry. An
// attempt counts as successful when it finished without an error and either
// produced at least one structurally valid content item, or produced no
// items but carried other descriptive data (a legitimate empty result, as
// opposed to a broken selector returning nothing at all).
func (r UnitResult) Succeeded() bool {
	if r.Error != "" {
		return false
	}
	for _, item := range r.Items {
		if strings.TrimSpace(item.Name) != "" || strings.TrimSpace(item.Text) != "" {
			return true
		}
	}
	return len(r.Items) == 0 && len(r.Descriptive) > 0
}

// NormalizeName is the matching key between runs: case-folded and with
// whitespace collapsed.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

type NearMatch struct {
	Current    string  `json:"current"`
	Previous   string  `json:"previous"`
	Similarity float64 `json:"similarity"`
}

type Stats struct {
	Total             int         `json:"total"`
	New               int         `json:"new"`
	Failed            int         `json:"failed"`
	Succeeded         int         `json:"succeeded"`
	FailedFraction    float64     `json:"failed_fraction"`
	ResumeRecommended bool        `json:"resume_recommended"`
	NearMatches       []NearMatch `json:"near_matches,omitempty"`
}

type Plan struct {
	ToProcess         []string `json:"to_process"`
	AlreadySuccessful []string `json:"already_successful"`
	Stats             Stats    `json:"stats"`
}

// BuildPlan partitions the current unit list into units that must be
// (re)processed and units whose previous attempt already succeeded.
func BuildPlan(currentUnits []string, previous []UnitResult) Plan {
	previousByName := make(map[string]UnitResult, len(previous))
	previousNames := make([]string, 0, len(previous))
	for _, result := range previous {
		key := NormalizeName(result.Name)
		previousByName[key] = result
		previousNames = append(previousNames, key)
	}

	plan := Plan{}
	for _, unit := range currentUnits {
		key := NormalizeName(unit)
		prior, seen := previousByName[key]
		if !seen {
			plan.Stats.New++
			plan.ToProcess = append(plan.ToProcess, unit)
			plan.Stats.NearMatches = append(
				plan.Stats.NearMatches,
				nearMatches(key, previousNames)...,
			)
			continue
		}
		if prior.Succeeded() {
			plan.Stats.Succeeded++
			plan.AlreadySuccessful = append(plan.AlreadySuccessful, unit)
			continue
		}
		plan.Stats.Failed++
		plan.ToProcess = append(plan.ToProcess, unit)
	}

	plan.Stats.Total = len(currentUnits)
	if plan.Stats.Total > 0 {
		plan.Stats.FailedFraction = float64(plan.Stats.Failed) / float64(plan.Stats.Total)
	}
	plan.Stats.ResumeRecommended = plan.Stats.FailedFraction > failedFractionThreshold ||
		plan.Stats.Failed > failedCountFloor

	return plan
}

func nearMatches(current string, previousNames []string) []NearMatch {
	var out []NearMatch
	for _, previous := range previousNames {
		similarity := matchr.JaroWinkler(current, previous, false)
		if similarity >= nearMatchSimilarity {
			out = append(out, NearMatch{
				Current:    current,
				Previous:   previous,
				Similarity: similarity,
			})
		}
	}
	return out
}
