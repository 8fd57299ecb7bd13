package kernel

import (
	"github.com/vk/composegrid/internal/runtime"
	"github.com/vk/composegrid/modules/env_vars"
	"github.com/vk/composegrid/modules/print"
)

// coreModules is the definitive list of all modules that are compiled into
// the composegrid binary.
var coreModules = []runtime.Module{
	&env_vars.Module{},
	&print.Module{},
}
