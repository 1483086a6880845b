package checksum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordStableUnderKeyOrder(t *testing.T) {
	a := map[string]any{
		"name":     "Jane Doe",
		"category": "medication",
		"items":    []any{"aspirin", "ibuprofen"},
	}
	b := map[string]any{
		"items":    []any{"aspirin", "ibuprofen"},
		"category": "medication",
		"name":     "Jane Doe",
	}
	require.Equal(t, Record(a), Record(b))
}

func TestRecordStableUnderListOrder(t *testing.T) {
	a := map[string]any{
		"entries": []any{
			map[string]any{"name": "aspirin", "dose": "100mg"},
			map[string]any{"name": "ibuprofen", "dose": "200mg"},
		},
	}
	b := map[string]any{
		"entries": []any{
			map[string]any{"dose": "200mg", "name": "ibuprofen"},
			map[string]any{"dose": "100mg", "name": "aspirin"},
		},
	}
	require.Equal(t, Record(a), Record(b))
}

func TestRecordSemanticSensitivity(t *testing.T) {
	a := map[string]any{"name": "Jane Doe", "dose": "100mg"}
	b := map[string]any{"name": "Jane Doe", "dose": "200mg"}
	require.NotEqual(t, Record(a), Record(b))
}

func TestRecordExcludesVolatileFields(t *testing.T) {
	a := map[string]any{"name": "Jane Doe", "internal_id": "session-1"}
	b := map[string]any{"name": "Jane Doe", "internal_id": "session-2"}
	require.Equal(t, Record(a, "internal_id"), Record(b, "internal_id"))
	require.NotEqual(t, Record(a), Record(b))
}

func TestRecordDistinguishesTypes(t *testing.T) {
	a := map[string]any{"value": "1"}
	b := map[string]any{"value": 1}
	require.NotEqual(t, Record(a), Record(b))
}

func TestFingerprintOrderIndependent(t *testing.T) {
	a := Fingerprint(map[string]string{
		"tenant": "stanford health",
		"filter": "aspirin",
		"start":  "2020-01-01",
		"stop":   "2020-06-30",
	})
	b := Fingerprint(map[string]string{
		"stop":   "2020-06-30",
		"start":  "2020-01-01",
		"filter": "aspirin",
		"tenant": "stanford health",
	})
	require.Equal(t, a, b)

	c := Fingerprint(map[string]string{
		"tenant": "stanford health",
		"filter": "ibuprofen",
		"start":  "2020-01-01",
		"stop":   "2020-06-30",
	})
	require.NotEqual(t, a, c)
}
