package app

import (
	"github.com/vk/tenantgridgo/internal/registry"
	"github.com/vk/tenantgridgo/modules/forms"
	"github.com/vk/tenantgridgo/modules/queries"
	"github.com/vk/tenantgridgo/modules/records"
	"github.com/vk/tenantgridgo/modules/scripts"
	"github.com/vk/tenantgridgo/modules/settings"
	"github.com/vk/tenantgridgo/modules/workflows"
)

// coreModules is the definitive list of all modules that are compiled into
// the tenantgridgo binary.
var coreModules = []registry.Module{
	&scripts.Module{},
	&forms.Module{},
	&queries.Module{},
	&workflows.Module{},
	&records.Module{},
	&settings.Module{},
}
