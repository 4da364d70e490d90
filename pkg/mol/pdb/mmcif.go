package pdb

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/flatmol/flatmol/pkg/errors"
	"github.com/flatmol/flatmol/pkg/mol"
)

// =============================================================================
// Loop Extraction
// =============================================================================

const atomSitePrefix = "_atom_site."

// cifLoop is the parsed _atom_site loop: column lookup by tag name (with
// the category prefix stripped, lowercased) and the raw row values.
type cifLoop struct {
	cols map[string]int
	rows [][]string
}

// col returns the column index of the first tag present, or -1.
func (l *cifLoop) col(names ...string) int {
	for _, n := range names {
		if i, ok := l.cols[n]; ok {
			return i
		}
	}
	return -1
}

// cell fetches a row value, mapping the CIF null markers "." and "?" to
// the empty string.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	v := row[idx]
	if v == "." || v == "?" {
		return ""
	}
	return v
}

// cifFields splits one line of loop data into tokens. Single- and
// double-quoted values are unwrapped; a closing quote only counts when
// followed by whitespace or end of line.
func cifFields(line string) []string {
	var out []string
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) || line[i] == '#' {
			break
		}
		if q := line[i]; q == '\'' || q == '"' {
			i++
			start := i
			for i < len(line) {
				if line[i] == q && (i+1 == len(line) || line[i+1] == ' ' || line[i+1] == '\t') {
					break
				}
				i++
			}
			out = append(out, line[start:i])
			if i < len(line) {
				i++
			}
			continue
		}
		start := i
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		out = append(out, line[start:i])
	}
	return out
}

// findAtomSiteLoop scans for the loop_ block whose tags belong to the
// _atom_site category and collects its rows. Values may wrap across
// lines, so tokens are accumulated and chunked by column count.
func findAtomSiteLoop(data []byte) (*cifLoop, error) {
	const (
		seeking = iota
		inTags
		inRows
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		state      = seeking
		tags       []string
		isAtomSite bool
		fields     []string
		inText     bool
	)

	for sc.Scan() {
		line := sc.Text()

		// Semicolon-delimited text blocks span lines. None occur inside
		// _atom_site, but other categories use them and must be skipped.
		if strings.HasPrefix(line, ";") {
			inText = !inText
			continue
		}
		if inText {
			continue
		}

		trimmed := strings.TrimSpace(line)

		switch state {
		case seeking:
			if trimmed == "loop_" {
				state = inTags
				tags = nil
				isAtomSite = false
			}

		case inTags:
			if strings.HasPrefix(trimmed, "_") {
				tag := strings.Fields(trimmed)[0]
				tags = append(tags, tag)
				if strings.HasPrefix(tag, atomSitePrefix) {
					isAtomSite = true
				}
				continue
			}
			if !isAtomSite {
				state = seeking
				if trimmed == "loop_" {
					state = inTags
					tags = nil
				}
				continue
			}
			state = inRows
			fallthrough

		case inRows:
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "_") ||
				trimmed == "loop_" || strings.HasPrefix(trimmed, "data_") {
				return finishLoop(tags, fields)
			}
			fields = append(fields, cifFields(line)...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if state == inRows {
		return finishLoop(tags, fields)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "no _atom_site loop found")
}

func finishLoop(tags []string, fields []string) (*cifLoop, error) {
	n := len(tags)
	if n == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "empty _atom_site loop")
	}
	loop := &cifLoop{cols: make(map[string]int, n)}
	for i, t := range tags {
		loop.cols[strings.ToLower(strings.TrimPrefix(t, atomSitePrefix))] = i
	}
	for i := 0; i+n <= len(fields); i += n {
		loop.rows = append(loop.rows, fields[i:i+n])
	}
	if len(loop.rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "empty _atom_site loop")
	}
	return loop, nil
}

// =============================================================================
// Parsing
// =============================================================================

// parseMMCIF reads an mmCIF/PDBx file by extracting its _atom_site loop.
// Rows grouped by pdbx_PDB_model_num become separate frames.
func parseMMCIF(data []byte, opts Options) ([]*mol.Frame, error) {
	loop, err := findAtomSiteLoop(data)
	if err != nil {
		return nil, err
	}

	var (
		xCol     = loop.col("cartn_x")
		yCol     = loop.col("cartn_y")
		zCol     = loop.col("cartn_z")
		nameCol  = loop.col("label_atom_id", "auth_atom_id")
		compCol  = loop.col("label_comp_id", "auth_comp_id")
		chainCol = loop.col("auth_asym_id", "label_asym_id")
		seqCol   = loop.col("auth_seq_id", "label_seq_id")
		altCol   = loop.col("label_alt_id")
		bCol     = loop.col("b_iso_or_equiv")
		elemCol  = loop.col("type_symbol")
		modelCol = loop.col("pdbx_pdb_model_num")
		insCol   = loop.col("pdbx_pdb_ins_code")
	)
	required := []struct {
		idx  int
		name string
	}{
		{xCol, "Cartn_x"},
		{yCol, "Cartn_y"},
		{zCol, "Cartn_z"},
		{nameCol, "label_atom_id"},
		{compCol, "label_comp_id"},
		{chainCol, "auth_asym_id"},
	}
	for _, r := range required {
		if r.idx < 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "_atom_site loop missing %s", r.name)
		}
	}

	var (
		frames    []*mol.Frame
		residues  []residue
		curResKey string
		curModel  string
		haveModel bool
	)

	flush := func() {
		if len(residues) == 0 {
			return
		}
		frames = append(frames, buildFrame(residues, opts))
		residues = nil
		curResKey = ""
	}

	for _, row := range loop.rows {
		x, errX := strconv.ParseFloat(cell(row, xCol), 64)
		y, errY := strconv.ParseFloat(cell(row, yCol), 64)
		z, errZ := strconv.ParseFloat(cell(row, zCol), 64)
		if errX != nil || errY != nil || errZ != nil {
			continue
		}

		// First alternate conformer only.
		if alt := cell(row, altCol); alt != "" && alt != "A" && alt != "1" {
			continue
		}

		if model := cell(row, modelCol); haveModel && model != curModel {
			flush()
			curModel = model
		} else if !haveModel {
			curModel = model
			haveModel = true
		}

		a := atom{
			name:    cell(row, nameCol),
			x:       x,
			y:       y,
			z:       z,
			element: cell(row, elemCol),
		}
		if b := cell(row, bCol); b != "" {
			a.bIso, _ = strconv.ParseFloat(b, 64)
		}

		chain := cell(row, chainCol)
		comp := cell(row, compCol)
		seqStr := cell(row, seqCol)

		key := chain + "\x00" + seqStr + "\x00" + cell(row, insCol) + "\x00" + comp
		if len(residues) == 0 || key != curResKey {
			seq, _ := strconv.Atoi(seqStr)
			residues = append(residues, residue{name: comp, chain: chain, seq: seq})
			curResKey = key
		}
		last := len(residues) - 1
		residues[last].atoms = append(residues[last].atoms, a)
	}
	flush()

	return frames, nil
}
