package harness

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scriptc/internal/term"
)

// Snapshot renders a result as stable text for golden comparison: the
// dialect, the artifact header, and the lowered term, or the failure code.
func Snapshot(scenarioName string, r *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", scenarioName)
	fmt.Fprintf(&b, "program: %s\n", r.Program)
	fmt.Fprintf(&b, "dialect: %s\n", r.Dialect)
	if r.Artifact == nil {
		fmt.Fprintf(&b, "status: failed\n")
		fmt.Fprintf(&b, "code: %s\n", r.Code)
		return []byte(b.String())
	}
	fmt.Fprintf(&b, "status: compiled\n")
	fmt.Fprintf(&b, "header: %s\n", hex.EncodeToString(r.Artifact.Bytes[:min(4, len(r.Artifact.Bytes))]))
	b.WriteString("---\n")
	b.WriteString(term.Print(r.Artifact.Term))
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
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
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
