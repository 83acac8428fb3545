// Package formats provides readers and writers for the fixed-column
// structure files exchanged with the docking and MD engines. Each
// subpackage knows one file family:
//
//   - pdbqt: AutoDock/Vina receptor, ligand and pose records
//   - gro: GROMACS coordinate snapshots
//   - gromacs: topology [ molecules ] records and .mdp parameters
//
// Readers keep every original line so that writers reproduce untouched
// records byte for byte.
package formats
