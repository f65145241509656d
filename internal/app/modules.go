package app

import (
	"github.com/specialistvlad/hdlforge/internal/registry"
	"github.com/specialistvlad/hdlforge/modules/gates"
	"github.com/specialistvlad/hdlforge/modules/primitives"
)

// coreModules is the definitive list of all library modules that are
// compiled into the hdlforge binary.
var coreModules = []registry.Module{
	&primitives.Module{},
	&gates.Module{},
}
