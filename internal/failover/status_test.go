package failover

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func primaryStatus(kind, label string) Status {
	return Status{
		Backend:           kind,
		UsingPrimary:      true,
		PrimaryAvailable:  true,
		FallbackAvailable: true,
		PrimaryHealthy:    boolPtr(true),
		CurrentDB:         label,
		State:             StateUsingPrimary,
	}
}

func TestAggregate_DegradedWhenOneBackendUnusable(t *testing.T) {
	report := Aggregate(
		stubReporter{"relational", primaryStatus("relational", "Supabase")},
		stubReporter{"document", primaryStatus("document", "MongoDB Atlas")},
		stubReporter{"cache", Status{Backend: "cache", CurrentDB: CurrentDBNone, State: StateUnusable}},
	)

	assert.Equal(t, OverallDegraded, report.OverallStatus)
	assert.False(t, report.Healthy())
	assert.False(t, report.Ready())
	assert.Equal(t, []string{"cache", "document", "relational"}, report.Kinds())
}

func TestAggregate_HealthyWithFallbackActive(t *testing.T) {
	fallback := Status{
		Backend:           "cache",
		FallbackAvailable: true,
		CurrentDB:         "Local Redis",
		State:             StateUsingFallback,
	}
	report := Aggregate(
		stubReporter{"relational", primaryStatus("relational", "Supabase")},
		stubReporter{"cache", fallback},
	)

	assert.Equal(t, OverallHealthy, report.OverallStatus)
	assert.True(t, report.Ready())
}

func TestAggregate_NotReadyWhenPrimaryFailingWithoutFallback(t *testing.T) {
	failing := primaryStatus("relational", "Supabase")
	failing.FallbackAvailable = false
	failing.PrimaryHealthy = boolPtr(false)

	report := Aggregate(stubReporter{"relational", failing})

	assert.True(t, report.Healthy())
	assert.False(t, report.Ready())
}

func TestAggregate_FromManagers(t *testing.T) {
	relational := newTestManager(newFakePool("primary", true), newFakePool("fallback", true))
	cache := New[*fakeConn]("cache", nil, nil)

	report := Aggregate(relational, cache)

	assert.Equal(t, OverallDegraded, report.OverallStatus)
	assert.Equal(t, StateUsingPrimary, report.Backends["relational"].State)
	assert.Equal(t, StateUnusable, report.Backends["cache"].State)
}

func TestReport_MarshalJSON(t *testing.T) {
	report := Aggregate(
		stubReporter{"relational", primaryStatus("relational", "Supabase")},
		stubReporter{"document", Status{
			Backend:           "document",
			FallbackAvailable: true,
			CurrentDB:         "Local MongoDB",
			State:             StateUsingFallback,
		}},
	)

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "healthy", got["overall_status"])

	relational, ok := got["relational"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, relational["using_primary"])
	assert.Equal(t, true, relational["primary_available"])
	assert.Equal(t, true, relational["fallback_available"])
	assert.Equal(t, true, relational["primary_healthy"])
	assert.Equal(t, "Supabase", relational["current_db"])
	assert.Equal(t, "using_primary", relational["state"])
	assert.NotContains(t, relational, "last_check")

	document, ok := got["document"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, document["using_primary"])
	assert.Equal(t, false, document["primary_available"])
	assert.Nil(t, document["primary_healthy"])
	assert.Contains(t, document, "primary_healthy")
	assert.Equal(t, "Local MongoDB", document["current_db"])
}

func TestState_Text(t *testing.T) {
	for _, s := range []State{StateUsingPrimary, StateUsingFallback, StateUnusable} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var parsed State
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, s, parsed)
	}

	var s State
	assert.Error(t, s.UnmarshalText([]byte("rebooting")))
	assert.Equal(t, "unknown", State(42).String())
	assert.Equal(t, "fallback", RoleFallback.String())
}
