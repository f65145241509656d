package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/hdlforge/internal/config"
	"github.com/specialistvlad/hdlforge/internal/namepath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const designHCL = `
paramclass "InvParams" {
  field "width" {
    type        = number
    description = "bus width"
    default     = 1
  }
  field "drive" {
    class = "Drive"
  }
  field "taps" {
    type = list(number)
  }
}

interface "Bus" {
  field "data" {
    width     = 8
    direction = "output"
  }
  field "valid" {
    width = 1
  }
}

external "Res" {
  domain = "pdk"
  params = "InvParams"
  port "p" {
    width     = 1
    direction = "inout"
  }
}

module "Top" {
  description = "top level"
  port "a" {
    width     = 4
    direction = "input"
  }
  port "y" {
    width     = 4
    direction = "output"
  }
  signal "mid" {
    width = 4
  }
  interface "bus" {
    type = "Bus"
    port = true
  }

  instance "u2" {
    of      = "Leaf"
    connect = { i = mid, o = y, "d" = bus.data, s = "mid[0:4:2]" }
  }
  instance "u1" {
    generator = "inverter"
    params    = { width = 4 }
    connect   = { i = a, o = mid }
  }
  connect "u2" {
    en = a[0]
  }
}
`

func loadString(t *testing.T, src string) (*config.Model, error) {
	t.Helper()
	return NewLoader().LoadSource(context.Background(), "design.hcl", []byte(src))
}

func TestLoadSource_FullDesign(t *testing.T) {
	model, err := loadString(t, designHCL)
	require.NoError(t, err)

	require.Len(t, model.ParamClasses, 1)
	pc := model.ParamClasses[0]
	assert.Equal(t, "InvParams", pc.Name)
	require.Len(t, pc.Fields, 3)
	assert.Equal(t, cty.Number, pc.Fields[0].Type)
	require.NotNil(t, pc.Fields[0].Default)
	assert.True(t, pc.Fields[0].Default.Equals(cty.NumberIntVal(1)).True())
	assert.Equal(t, "Drive", pc.Fields[1].Class)
	assert.Nil(t, pc.Fields[1].Default)
	assert.Equal(t, cty.List(cty.Number), pc.Fields[2].Type)

	require.Len(t, model.Interfaces, 1)
	assert.Equal(t, []*config.InterfaceField{
		{Name: "data", Width: 8, Direction: "output"},
		{Name: "valid", Width: 1},
	}, model.Interfaces[0].Fields)

	require.Len(t, model.Externals, 1)
	res := model.Externals[0]
	assert.Equal(t, "pdk", res.Domain)
	assert.Equal(t, "InvParams", res.Params)
	assert.Equal(t, []*config.Port{{Name: "p", Width: 1, Direction: "inout"}}, res.Ports)

	require.Len(t, model.Modules, 1)
	top := model.Modules[0]
	assert.Equal(t, "Top", top.Name)
	assert.Equal(t, "top level", top.Description)
	assert.Len(t, top.Ports, 2)
	assert.Equal(t, "input", top.Ports[0].Direction)
	assert.Len(t, top.Signals, 1)
	assert.Equal(t, []*config.InterfaceMember{{Name: "bus", Type: "Bus", Port: true}}, top.Interfaces)
	assert.Equal(t, []string{"Leaf"}, top.ModuleDependencies())

	require.Len(t, top.Instances, 2)
	u2, u1 := top.Instances[0], top.Instances[1]
	assert.True(t, u2.Params.IsNull())
	assert.Equal(t, "inverter", u1.Generator)
	assert.True(t, u1.Params.GetAttr("width").Equals(cty.NumberIntVal(4)).True())

	assert.Equal(t, namepath.New("mid"), u2.Connect["i"].Path)
	assert.Equal(t, namepath.New("bus", "data"), u2.Connect["d"].Path)
	assert.Equal(t, namepath.Path{namepath.Ranged("mid", 0, 4, 2)}, u2.Connect["s"].Path)
	assert.Equal(t, "design.hcl", u2.Connect["i"].Source.File)

	require.Len(t, top.Connects, 1)
	assert.Equal(t, "u2", top.Connects[0].Instance)
	assert.Equal(t, namepath.Path{namepath.Indexed("a", 0)}, top.Connects[0].Connect["en"].Path)
}

func TestLoadSource_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "syntax error",
			src:     `module "x" {`,
			wantErr: "failed to parse",
		},
		{
			name:    "unknown top-level block",
			src:     `widget "x" {}`,
			wantErr: "failed to decode",
		},
		{
			name: "type and class",
			src: `paramclass "P" {
  field "f" {
    type  = number
    class = "Q"
  }
}`,
			wantErr: "mutually exclusive",
		},
		{
			name: "bad type",
			src: `paramclass "P" {
  field "f" {
    type = frobnicate
  }
}`,
			wantErr: "invalid type expression",
		},
		{
			name: "non-static default",
			src: `paramclass "P" {
  field "f" {
    type    = number
    default = other.value
  }
}`,
			wantErr: "must be static",
		},
		{
			name: "of and generator",
			src: `module "M" {
  instance "u" {
    of        = "A"
    generator = "b"
  }
}`,
			wantErr: "exactly one of 'of' and 'generator'",
		},
		{
			name: "neither of nor generator",
			src: `module "M" {
  instance "u" {}
}`,
			wantErr: "exactly one of 'of' and 'generator'",
		},
		{
			name: "params not an object",
			src: `module "M" {
  instance "u" {
    generator = "g"
    params    = 4
  }
}`,
			wantErr: "'params' must be an object",
		},
		{
			name: "two references in one target",
			src: `module "M" {
  instance "u" {
    of      = "A"
    connect = { i = [a, b] }
  }
}`,
			wantErr: "exactly one member",
		},
		{
			name: "computed target",
			src: `module "M" {
  instance "u" {
    of      = "A"
    connect = { i = a + 1 }
  }
}`,
			wantErr: "not a plain reference",
		},
		{
			name: "bad name path literal",
			src: `module "M" {
  instance "u" {
    of      = "A"
    connect = { i = "a[0:4:0]" }
  }
}`,
			wantErr: "step cannot be zero",
		},
		{
			name: "number target",
			src: `module "M" {
  instance "u" {
    of      = "A"
    connect = { i = 3 }
  }
}`,
			wantErr: "must be a reference or a name path string",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadString(t, tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_WalksDirectoriesInOrder(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b/leaf.hcl": `module "Leaf" {}`,
		"a/top.hcl":  `module "Top" {}`,
		"notes.txt":  `module "Ignored" {}`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	model, err := NewLoader().Load(context.Background(), dir, filepath.Join(dir, "a", "top.hcl"), filepath.Join(dir, "missing"))
	require.NoError(t, err)

	var names []string
	for _, m := range model.Modules {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Top", "Leaf"}, names)
}
