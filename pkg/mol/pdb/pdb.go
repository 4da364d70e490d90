package pdb

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/flatmol/flatmol/pkg/mol"
)

// pdbLine holds the columns of one ATOM/HETATM record that matter here.
type pdbLine struct {
	atom    atom
	altLoc  byte
	resName string
	chain   string
	seq     int
	iCode   byte
}

// parsePDBLine extracts an atom record from a fixed-column line. Returns
// false for lines too short or with unparseable coordinates.
func parsePDBLine(line string) (pdbLine, bool) {
	if len(line) < 54 {
		return pdbLine{}, false
	}

	x, errX := strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
	z, errZ := strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
	if errX != nil || errY != nil || errZ != nil {
		return pdbLine{}, false
	}

	rec := pdbLine{
		atom:    atom{name: strings.TrimSpace(line[12:16]), x: x, y: y, z: z},
		altLoc:  line[16],
		resName: strings.TrimSpace(line[17:20]),
		chain:   strings.TrimSpace(line[21:22]),
		iCode:   line[26],
	}
	rec.seq, _ = strconv.Atoi(strings.TrimSpace(line[22:26]))

	if len(line) >= 66 {
		rec.atom.bIso, _ = strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64)
	}
	if len(line) >= 78 {
		rec.atom.element = strings.TrimSpace(line[76:78])
	}
	return rec, true
}

// parsePDB reads fixed-column PDB text. MODEL/ENDMDL records delimit
// frames; files without them produce a single frame.
func parsePDB(data []byte, opts Options) ([]*mol.Frame, error) {
	var (
		frames   []*mol.Frame
		residues []residue
		curKey   string
	)

	flush := func() {
		if len(residues) == 0 {
			return
		}
		frames = append(frames, buildFrame(residues, opts))
		residues = nil
		curKey = ""
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "MODEL") || strings.HasPrefix(line, "ENDMDL"):
			flush()

		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			rec, ok := parsePDBLine(line)
			if !ok {
				continue
			}
			// First alternate conformer only.
			if rec.altLoc != ' ' && rec.altLoc != 'A' && rec.altLoc != '1' {
				continue
			}

			key := rec.chain + "\x00" + strconv.Itoa(rec.seq) + "\x00" +
				string(rec.iCode) + "\x00" + rec.resName
			if len(residues) == 0 || key != curKey {
				residues = append(residues, residue{
					name:  rec.resName,
					chain: rec.chain,
					seq:   rec.seq,
				})
				curKey = key
			}
			last := len(residues) - 1
			residues[last].atoms = append(residues[last].atoms, rec.atom)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()

	return frames, nil
}
