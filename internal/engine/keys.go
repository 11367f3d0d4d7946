package engine

// Well-known shared registry keys and index set names. Modules coordinate
// through these strings instead of importing each other.
const (
	// KeyPowerSupply collects every variable that injects power into the
	// system, per entity and timepoint.
	KeyPowerSupply = "power-supply"
	// KeyPowerDemand collects every variable that withdraws power, beyond
	// the exogenous load.
	KeyPowerDemand = "power-demand"
	// KeyReserveUp collects upward-reserve provision variables.
	KeyReserveUp = "reserve-up"
	// KeyEmittingPower collects dispatch variables whose energy carries an
	// emission rate.
	KeyEmittingPower = "emitting-power"

	// SetTimepoints is the shared timepoint index set, created by the load
	// balance module before any other module declares into it.
	SetTimepoints = "TP"
)
