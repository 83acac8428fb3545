// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CheckpointStore: Durable progress record (JSON file or SQLite)
//   - ArtifactStore: Immutable receptor, pose and complex versions
//   - DockingEngine: AutoDock4 or Vina wrapper
//   - MDEngine: GROMACS wrapper
//   - CommandRunner: Executes engine commands (local, WSL, dry-run)
//
// # Optional Interfaces
//
// These can be nil:
//
//   - Metrics: Prometheus counters, written to a textfile at exit.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
