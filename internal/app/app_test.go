package app_test

import (
	"encoding/json"
	"testing"

	"github.com/specialistvlad/hdlforge/internal/app"
	"github.com/specialistvlad/hdlforge/internal/testutil"
	"github.com/specialistvlad/hdlforge/modules/gates"
	"github.com/specialistvlad/hdlforge/modules/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topHCL = `
module "Top" {
  port "vdd" {
    width     = 1
    direction = "inout"
  }
  port "vss" {
    width     = 1
    direction = "inout"
  }
  port "a" {
    width     = 2
    direction = "input"
  }
  port "y" {
    width     = 2
    direction = "output"
  }
  signal "float" {
    width = 1
  }

  instance "u1" {
    generator = "inverter"
    params    = { width = 2 }
    connect   = { i = a, o = y, vdd = vdd, vss = vss }
  }
  instance "r1" {
    of      = "Res"
    params  = { r = 50 }
    connect = { p = vdd, n = vss }
  }
}
`

const otherHCL = `
module "Other" {
  port "a" {
    width     = 1
    direction = "input"
  }
}
`

func decode(t *testing.T, out string) app.Result {
	t.Helper()
	var res app.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Design)
	return res
}

func TestRun_ExportsDesign(t *testing.T) {
	result := testutil.RunApp(t, map[string]string{"top.hcl": topHCL}, app.Config{Validate: true})
	require.NoError(t, result.Err)

	res := decode(t, result.Output)
	assert.Equal(t, "Top", res.Design.Top)
	assert.Empty(t, res.Findings, "rules were not requested")

	var modules []string
	for _, m := range res.Design.Modules {
		modules = append(modules, m.Name)
	}
	require.Len(t, modules, 2)
	assert.Contains(t, modules[0], "inverter_", "dependencies come before their users")
	assert.Equal(t, "Top", modules[1])
	assert.Equal(t, "inverter", res.Design.Modules[0].Generator)

	var externals []string
	for _, e := range res.Design.Externals {
		assert.Equal(t, primitives.Domain, e.Domain)
		externals = append(externals, e.Name)
	}
	assert.ElementsMatch(t, []string{"Nmos", "Pmos", "Res"}, externals)

	assert.Contains(t, result.LogOutput, "Design elaborated.")
	assert.Contains(t, result.LogOutput, "Export view validated against schema.")
}

func TestRun_DesignRules(t *testing.T) {
	result := testutil.RunApp(t, map[string]string{"top.hcl": topHCL}, app.Config{CheckRules: true})
	require.NoError(t, result.Err)

	res := decode(t, result.Output)
	require.Len(t, res.Findings, 1)
	f := res.Findings[0]
	assert.Equal(t, "floating_signal", f.Rule)
	assert.Equal(t, "Top", f.Module)
	assert.Equal(t, "float", f.Member)
	assert.Contains(t, result.LogOutput, "level=WARN")
}

func TestRun_TopSelection(t *testing.T) {
	files := map[string]string{"top.hcl": topHCL, "lib/other.hcl": otherHCL}

	testCases := []struct {
		name    string
		top     string
		wantTop string
		wantErr string
	}{
		{name: "ambiguous roots", wantErr: "several top-level candidates"},
		{name: "explicit top", top: "Other", wantTop: "Other"},
		{name: "unknown top", top: "Nope", wantErr: `top module "Nope" is not defined`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := testutil.RunApp(t, files, app.Config{Top: tc.top})
			if tc.wantErr != "" {
				require.Error(t, result.Err)
				assert.Contains(t, result.Err.Error(), tc.wantErr)
				assert.Empty(t, result.Output)
				return
			}
			require.NoError(t, result.Err)
			res := decode(t, result.Output)
			assert.Equal(t, tc.wantTop, res.Design.Top)
			require.Len(t, res.Design.Modules, 1)
		})
	}
}

func TestRun_PipelineErrors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "syntax error",
			files:   map[string]string{"bad.hcl": `module "Top" {`},
			wantErr: "failed to load design",
		},
		{
			name: "unknown target",
			files: map[string]string{"top.hcl": `
module "Top" {
  instance "u1" {
    of = "Missing"
  }
}
`},
			wantErr: "failed to assemble design",
		},
		{
			name:    "no modules",
			files:   map[string]string{"empty.hcl": ""},
			wantErr: "design defines no modules",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := testutil.RunApp(t, tc.files, app.Config{})
			require.Error(t, result.Err)
			assert.Contains(t, result.Err.Error(), tc.wantErr)
		})
	}
}

func TestNewApp_ConflictingLibraries(t *testing.T) {
	result := testutil.RunApp(t, map[string]string{"top.hcl": otherHCL}, app.Config{},
		&primitives.Module{}, &gates.Module{}, &gates.Module{})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "application startup panicked")
	assert.Nil(t, result.App)
}

func TestNewApp_CustomLibraries(t *testing.T) {
	result := testutil.RunApp(t, map[string]string{"top.hcl": otherHCL}, app.Config{}, &primitives.Module{})
	require.NoError(t, result.Err)
	assert.Empty(t, result.App.Registry().Names("generator"))
	assert.Len(t, result.App.Registry().Names("external"), 4)
}
