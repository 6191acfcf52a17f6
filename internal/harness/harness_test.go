package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios against
// its golden file.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, "loading %s", path)

		t.Run(scenario.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRun_IdentityNoFlags(t *testing.T) {
	scenario := &Scenario{
		Name:  "identity",
		Cases: []Case{{Input: "abc"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Cases, 1)
	assert.Equal(t, "identity", result.ScenarioName)
	assert.Equal(t, "abc", result.Cases[0].Output)
	assert.Len(t, result.Cases[0].Alignment, 3)
}

func TestRun_InlineRules(t *testing.T) {
	scenario := &Scenario{
		Name:  "inline",
		Rules: "61 62\t58\n",
		Cases: []Case{{Input: "abab"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, "XX", result.Cases[0].Output)
}

func TestRun_WantMismatch(t *testing.T) {
	wrong := "zzz"
	scenario := &Scenario{
		Name:  "mismatch",
		Cases: []Case{{Input: "abc", Want: &wrong}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "case 0")
	assert.Contains(t, err.Error(), `want "zzz"`)
}

func TestRun_MalformedRules(t *testing.T) {
	scenario := &Scenario{
		Name:  "bad-rules",
		Rules: "41\t42\t43\n",
		Cases: []Case{{Input: "a"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "building engine")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		wantErr  string
	}{
		{
			name:     "missing name",
			scenario: Scenario{Cases: []Case{{Input: "a"}}},
			wantErr:  "name",
		},
		{
			name: "rules and rule_name both set",
			scenario: Scenario{
				Name:     "both",
				Rules:    "41\t42\n",
				RuleName: "nfkc",
				Cases:    []Case{{Input: "a"}},
			},
			wantErr: "mutually exclusive",
		},
		{
			name:     "no cases",
			scenario: Scenario{Name: "empty"},
			wantErr:  "at least one case",
		},
		{
			name:     "valid",
			scenario: Scenario{Name: "ok", Cases: []Case{{Input: "a"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scenario.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := strings.Join([]string{
		"name: typo",
		"caes:",
		"  - input: a",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
