// Package pdb parses macromolecular structure files into render-ready
// frames.
//
// Two formats are supported: the fixed-column PDB text format and
// mmCIF/PDBx. [Parse] detects the format from the content when none is
// given, and [ParseFile] additionally consults the file extension.
//
// # Position Selection
//
// Parsing reduces each structure to one position per residue rather than
// one per atom. Amino acids contribute their CA atom, nucleotides their
// C4' (or C4*) atom, and anything else is treated as a ligand and
// contributes every heavy atom. Waters (HOH) are skipped. Residues whose
// representative atom is missing are dropped silently, matching how
// partially resolved termini behave in practice.
//
// Isotropic B-factors ride along as per-position confidence values, so
// predicted structures carry their pLDDT without extra plumbing.
//
// # Models and Frames
//
// Multi-model files (NMR ensembles, trajectories) produce one frame per
// model, in file order. Models that contain no selectable positions are
// omitted from the result.
package pdb
