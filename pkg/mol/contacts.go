package mol

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/flatmol/flatmol/pkg/errors"
)

// colorNames maps the color words accepted in contact files.
var colorNames = map[string]RGB{
	"red":     {255, 0, 0},
	"green":   {0, 255, 0},
	"blue":    {0, 0, 255},
	"yellow":  {255, 255, 0},
	"orange":  {255, 165, 0},
	"purple":  {128, 0, 128},
	"cyan":    {0, 255, 255},
	"magenta": {255, 0, 255},
	"pink":    {255, 192, 203},
	"brown":   {165, 42, 42},
	"black":   {0, 0, 0},
	"white":   {255, 255, 255},
	"gray":    {128, 128, 128},
	"grey":    {128, 128, 128},
}

var rgbaRe = regexp.MustCompile(`^rgba?\((\d+),\s*(\d+),\s*(\d+)(?:,\s*[\d.]+)?\)$`)

// ParseColor parses a color word, hex code ("#ff0000" or "ff0000"), or
// rgb()/rgba() expression. The alpha component of rgba is accepted and
// ignored. Returns false for anything unrecognized.
func ParseColor(s string) (RGB, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RGB{}, false
	}

	if c, ok := colorNames[strings.ToLower(s)]; ok {
		return c, true
	}

	hex := s
	if strings.HasPrefix(hex, "#") {
		hex = hex[1:]
	}
	if len(hex) == 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return RGB{uint8(v >> 16), uint8(v >> 8 & 0xff), uint8(v & 0xff)}, true
		}
	}

	if m := rgbaRe.FindStringSubmatch(s); m != nil {
		r, err1 := strconv.Atoi(m[1])
		g, err2 := strconv.Atoi(m[2])
		b, err3 := strconv.Atoi(m[3])
		if err1 == nil && err2 == nil && err3 == nil && r <= 255 && g <= 255 && b <= 255 {
			return RGB{uint8(r), uint8(g), uint8(b)}, true
		}
	}

	return RGB{}, false
}

// ParseContacts reads a .cst contact file. Two line formats are accepted,
// both with a mandatory positive weight and an optional trailing color:
//
//	10 50 1.0 red          position indices
//	A 10 B 50 0.5 yellow   chain + residue pairs
//
// Blank lines and lines starting with # are skipped; lines that parse as
// neither format are skipped silently, matching the permissive reader the
// interactive viewer uses.
func ParseContacts(r io.Reader) ([]Contact, error) {
	var contacts []Contact

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)

		// Position indices format: "10 50 1.0" or "10 50 1.0 red".
		if len(parts) >= 3 {
			idx1, err1 := strconv.Atoi(parts[0])
			idx2, err2 := strconv.Atoi(parts[1])
			weight, err3 := strconv.ParseFloat(parts[2], 64)
			if err1 == nil && err2 == nil && err3 == nil {
				if weight > 0 {
					c := Contact{I: idx1, J: idx2, Weight: weight}
					if len(parts) >= 4 {
						// Join trailing parts: rgba colors contain spaces.
						if color, ok := ParseColor(strings.Join(parts[3:], " ")); ok {
							c.Color = &color
						}
					}
					contacts = append(contacts, c)
				}
				continue
			}
		}

		// Chain + residue format: "A 10 B 50 0.5" or "A 10 B 50 0.5 yellow".
		if len(parts) >= 5 {
			res1, err1 := strconv.Atoi(parts[1])
			res2, err2 := strconv.Atoi(parts[3])
			weight, err3 := strconv.ParseFloat(parts[4], 64)
			if err1 == nil && err2 == nil && err3 == nil && weight > 0 {
				c := Contact{
					ByResidue: true,
					ChainI:    parts[0],
					ResI:      res1,
					ChainJ:    parts[2],
					ResJ:      res2,
					Weight:    weight,
					I:         -1,
					J:         -1,
				}
				if len(parts) >= 6 {
					if color, ok := ParseColor(strings.Join(parts[5:], " ")); ok {
						c.Color = &color
					}
				}
				contacts = append(contacts, c)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "reading contacts")
	}

	return contacts, nil
}

// ParseContactsFile reads a .cst contact file from disk.
func ParseContactsFile(path string) ([]Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "contacts file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "opening contacts file %s", path)
	}
	defer f.Close()

	return ParseContacts(f)
}
