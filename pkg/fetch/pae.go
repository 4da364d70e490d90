package fetch

import (
	"encoding/json"
	"math"

	"github.com/flatmol/flatmol/pkg/errors"
)

// ParsePAE decodes a predicted-aligned-error JSON document. Four layouts
// are accepted:
//
//	{"pae": [[...]]}
//	{"predicted_aligned_error": [[...]]}
//	{"predicted_aligned_error": {"pae": [[...]]}}        (AlphaFold 3)
//	[{"predicted_aligned_error": [[...]]}]               (AlphaFold DB)
//
// The matrix is returned in the compact storage form: row-major uint8
// values scaled by 8 and clamped to 255, plus the matrix dimension.
func ParsePAE(data []byte) ([]uint8, int, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode PAE JSON")
	}

	matrix := extractPAEMatrix(doc)
	if matrix == nil {
		return nil, 0, errors.New(errors.ErrCodeInvalidFormat, "PAE JSON has an unexpected layout")
	}
	return quantizePAE(matrix)
}

// extractPAEMatrix walks the known document layouts to the raw matrix.
func extractPAEMatrix(doc any) []any {
	switch v := doc.(type) {
	case map[string]any:
		if m, ok := v["pae"].([]any); ok {
			return m
		}
		switch inner := v["predicted_aligned_error"].(type) {
		case []any:
			return inner
		case map[string]any:
			if m, ok := inner["pae"].([]any); ok {
				return m
			}
			if m, ok := inner["predicted_aligned_error"].([]any); ok {
				return m
			}
		}
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				if m, ok := first["predicted_aligned_error"].([]any); ok {
					return m
				}
			}
		}
	}
	return nil
}

func quantizePAE(rows []any) ([]uint8, int, error) {
	n := len(rows)
	out := make([]uint8, 0, n*n)
	for _, r := range rows {
		row, ok := r.([]any)
		if !ok || len(row) != n {
			return nil, 0, errors.New(errors.ErrCodeInvalidFormat, "PAE matrix is not square")
		}
		for _, cell := range row {
			f, ok := cell.(float64)
			if !ok {
				return nil, 0, errors.New(errors.ErrCodeInvalidFormat, "PAE matrix holds a non-numeric value")
			}
			s := math.Round(f * 8)
			switch {
			case s < 0:
				out = append(out, 0)
			case s > 255:
				out = append(out, 255)
			default:
				out = append(out, uint8(s))
			}
		}
	}
	if len(out) == 0 {
		return nil, 0, errors.New(errors.ErrCodeInvalidFormat, "PAE matrix is empty")
	}
	return out, n, nil
}
