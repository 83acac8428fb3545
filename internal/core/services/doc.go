// Package services implements the driving port interfaces.
// Services contain the docking and washing state machines and orchestrate
// calls to driven ports (engines, stores, metrics).
//
// The geometric primitives (MaskReceptor, Clash, ComputeDisplacements,
// AssembleComplex) are pure functions over domain types.
package services
