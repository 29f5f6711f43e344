// Package sim implements the core of the fluorescence-spectrum simulator:
// state-space enumeration, rate-matrix construction and the Monte Carlo
// decay-cascade engine.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - state.go: quantum states with exact half-integer j, the state table and
//     its enumeration order
//   - builder.go: rate-matrix construction with dipole selection-rule pruning
//   - cascade.go: the trajectory loop, inverse-CDF transition sampling and
//     parallel aggregation
//
// # Architecture
//
// Data flows one way: BuildRateMatrix produces an immutable (StateTable,
// rate matrix) pair, optionally persisted via lut.go; CascadeSimulator
// consumes it and produces a Result (spectrum histogram plus optional
// population and pathway statistics, spectrum.go).
//
// The atomic physics itself is behind the Provider interface (provider.go);
// sim/physics supplies an approximate built-in implementation, and tests use
// mocks. Providers fail on dipole-forbidden pairs instead of returning zero,
// so every call site checks DipoleAllowed (or samples only nonzero-rate
// entries) first.
package sim
