package medportal

import (
	"context"
	"medharvest-backend/services/orchestrator"
	"testing"

	"github.com/stretchr/testify/require"
)

const recordsPage = `
<html><body>
<div class="record-card" data-record-id="rec-001" data-session-id="tmp-91">
  <h3 class="record-name">Patient Alpha</h3>
  <ul class="record-items">
    <li><span class="item-name">prescription</span><span class="item-text">aspirin 100mg</span></li>
    <li><span class="item-name">note</span><span class="item-text">follow up in 2 weeks</span></li>
  </ul>
  <dl class="record-meta">
    <dt>Ward</dt><dd>3b</dd>
    <dt>Attending Physician</dt><dd>Dr. Reyes</dd>
  </dl>
</div>
<div class="record-card" data-record-id="rec-002">
  <h3 class="record-name">Patient Beta</h3>
  <dl class="record-meta">
    <dt>Ward</dt><dd>icu</dd>
  </dl>
</div>
</body></html>`

type htmlSession struct {
	html string
}

func (s htmlSession) Navigate(ctx context.Context, url string) error { return nil }
func (s htmlSession) Release()                                       {}
func (s htmlSession) PageHTML(ctx context.Context) (string, error)   { return s.html, nil }

func TestExtractAllRecords(t *testing.T) {
	records, err := Extract(context.Background(), htmlSession{recordsPage}, orchestrator.AdapterConfig{
		Mode: orchestrator.ModeAllUnits,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.Equal(t, "rec-001", first[orchestrator.FieldExternalID])
	require.Equal(t, "tmp-91", first[orchestrator.FieldTransientID])
	require.Equal(t, "Patient Alpha", first[orchestrator.FieldName])
	require.Equal(t, "3b", first["ward"])
	require.Equal(t, "Dr. Reyes", first["attending_physician"])

	items, ok := first[orchestrator.FieldItems].([]map[string]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	require.Equal(t, "aspirin 100mg", items[0]["text"])

	second := records[1]
	require.Equal(t, "rec-002", second[orchestrator.FieldExternalID])
	require.NotContains(t, second, orchestrator.FieldItems)
}

func TestExtractSingleUnitByID(t *testing.T) {
	records, err := Extract(context.Background(), htmlSession{recordsPage}, orchestrator.AdapterConfig{
		Mode:           orchestrator.ModeSingleUnit,
		UnitIdentifier: "rec-002",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Patient Beta", records[0][orchestrator.FieldName])
}

func TestExtractSingleUnitByName(t *testing.T) {
	records, err := Extract(context.Background(), htmlSession{recordsPage}, orchestrator.AdapterConfig{
		Mode:           orchestrator.ModeSingleUnit,
		UnitIdentifier: "patient   ALPHA",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "rec-001", records[0][orchestrator.FieldExternalID])
}

type htmlOnlySession struct{}

func (htmlOnlySession) Navigate(ctx context.Context, url string) error { return nil }
func (htmlOnlySession) Release()                                       {}

func TestExtractRequiresPageHTML(t *testing.T) {
	_, err := Extract(context.Background(), htmlOnlySession{}, orchestrator.AdapterConfig{})
	require.Error(t, err)
}
