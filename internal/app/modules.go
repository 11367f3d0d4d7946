package app

import (
	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/modules/balance"
	"github.com/gridwerk/gridwerk/modules/carboncap"
	"github.com/gridwerk/gridwerk/modules/renewable"
	"github.com/gridwerk/gridwerk/modules/reserves"
	"github.com/gridwerk/gridwerk/modules/storage"
	"github.com/gridwerk/gridwerk/modules/thermal"
	"github.com/gridwerk/gridwerk/modules/transmission"
)

// coreModules is the definitive list of all feature modules compiled into
// the gridwerk binary. Order matters: modules that create shared sets and
// declare registry entries come before the modules that consume them.
var coreModules = []engine.Module{
	balance.New(),
	thermal.New(),
	renewable.New(),
	storage.New(),
	transmission.New(),
	reserves.New(),
	carboncap.New(),
}
