package resume

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSucceededClassifier(t *testing.T) {
	// error flag always fails, even with items
	require.False(t, UnitResult{
		Name:  "Jane Doe",
		Error: "selector timed out",
		Items: []ContentItem{{Name: "aspirin", Text: "100mg"}},
	}.Succeeded())

	// at least one structurally valid item succeeds
	require.True(t, UnitResult{
		Name:  "Jane Doe",
		Items: []ContentItem{{Name: "aspirin"}},
	}.Succeeded())
	require.True(t, UnitResult{
		Name:  "Jane Doe",
		Items: []ContentItem{{Text: "100mg daily"}},
	}.Succeeded())

	// items that are all empty shells fail
	require.False(t, UnitResult{
		Name:  "Jane Doe",
		Items: []ContentItem{{Name: "  "}, {}},
	}.Succeeded())

	// zero items with descriptive data is a legitimate empty result
	require.True(t, UnitResult{
		Name:        "Jane Doe",
		Descriptive: map[string]any{"ward": "3b"},
	}.Succeeded())

	// zero items and nothing else looks like a broken extraction
	require.False(t, UnitResult{Name: "Jane Doe"}.Succeeded())
}

func TestBuildPlanPartitions(t *testing.T) {
	previous := []UnitResult{
		{Name: "Jane Doe", Items: []ContentItem{{Name: "aspirin"}}},
		{Name: "John Smith", Error: "adapter returned no data"},
		{Name: "Mary Major", Descriptive: map[string]any{"ward": "2a"}},
	}
	current := []string{"Jane Doe", "John Smith", "Mary Major", "New Patient"}

	plan := BuildPlan(current, previous)

	require.Equal(t, []string{"John Smith", "New Patient"}, plan.ToProcess)
	require.Equal(t, []string{"Jane Doe", "Mary Major"}, plan.AlreadySuccessful)
	require.Equal(t, 4, plan.Stats.Total)
	require.Equal(t, 1, plan.Stats.New)
	require.Equal(t, 1, plan.Stats.Failed)
	require.Equal(t, 2, plan.Stats.Succeeded)
}

func TestBuildPlanMatchesNormalizedNames(t *testing.T) {
	previous := []UnitResult{
		{Name: "  JANE   DOE ", Items: []ContentItem{{Name: "aspirin"}}},
	}
	plan := BuildPlan([]string{"jane doe"}, previous)
	require.Empty(t, plan.ToProcess)
	require.Equal(t, []string{"jane doe"}, plan.AlreadySuccessful)
}

func TestBuildPlanRecommendation(t *testing.T) {
	// 1 failed out of 20 is below both thresholds
	var previous []UnitResult
	var current []string
	for i := 0; i < 20; i++ {
		name := "patient " + string(rune('a'+i))
		current = append(current, name)
		result := UnitResult{Name: name, Items: []ContentItem{{Name: "x"}}}
		if i == 0 {
			result = UnitResult{Name: name, Error: "boom"}
		}
		previous = append(previous, result)
	}
	plan := BuildPlan(current, previous)
	require.False(t, plan.Stats.ResumeRecommended)

	// 3 of 20 failed exceeds the 10% fraction threshold
	previous[1] = UnitResult{Name: current[1], Error: "boom"}
	previous[2] = UnitResult{Name: current[2], Error: "boom"}
	plan = BuildPlan(current, previous)
	require.True(t, plan.Stats.ResumeRecommended)
}

func TestBuildPlanAbsoluteFloor(t *testing.T) {
	// 6 failed of 100 is 6%, under the fraction threshold, but over the
	// absolute floor of 5
	var previous []UnitResult
	var current []string
	for i := 0; i < 100; i++ {
		name := "patient " + string(rune('a'+i%26)) + string(rune('a'+i/26))
		current = append(current, name)
		result := UnitResult{Name: name, Items: []ContentItem{{Name: "x"}}}
		if i < 6 {
			result = UnitResult{Name: name, Error: "boom"}
		}
		previous = append(previous, result)
	}
	plan := BuildPlan(current, previous)
	require.Equal(t, 6, plan.Stats.Failed)
	require.True(t, plan.Stats.ResumeRecommended)
}

func TestBuildPlanNearMatchWarnings(t *testing.T) {
	previous := []UnitResult{
		{Name: "Jane Doe", Items: []ContentItem{{Name: "aspirin"}}},
	}
	plan := BuildPlan([]string{"Jane Does"}, previous)

	require.Equal(t, []string{"Jane Does"}, plan.ToProcess)
	require.Len(t, plan.Stats.NearMatches, 1)
	require.Equal(t, "jane does", plan.Stats.NearMatches[0].Current)
	require.Equal(t, "jane doe", plan.Stats.NearMatches[0].Previous)
}
