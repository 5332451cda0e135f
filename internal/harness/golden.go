package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/whisper/internal/ledger"
)

// TraceSnapshot is the serialized form of a scenario run for golden
// comparison. Canonical JSON keeps the byte representation stable across
// runs and platforms.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot to the generic shape that
// ledger.MarshalCanonical accepts. Empty and absent fields are omitted so
// golden files stay minimal.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":    event.Seq,
			"step":   event.Step,
			"actor":  event.Actor,
			"output": event.Output,
		}
		if event.Post != "" {
			eventMap["post"] = event.Post
		}
		if event.Reactions != nil {
			eventMap["reactions"] = *event.Reactions
		}
		if event.Comments != nil {
			eventMap["comments"] = *event.Comments
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
	}

	traceJSON, err := ledger.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}
