package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateObjectName validates a user-supplied object name for safety.
// Object names end up in cache keys, state files, and session documents,
// so the rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences (.., //, backslash)
//   - Maximum length of 256 characters
func ValidateObjectName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "object name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "object name too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "object name contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "object name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// pdbIDRegex matches 4-character PDB entry identifiers (e.g., "1ubq", "6M0J").
var pdbIDRegex = regexp.MustCompile(`^[0-9][a-zA-Z0-9]{3}$`)

// ValidatePDBID validates an RCSB PDB entry identifier.
// PDB IDs are exactly four characters, starting with a digit.
func ValidatePDBID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidStructure, "PDB id cannot be empty")
	}

	if !pdbIDRegex.MatchString(id) {
		return New(ErrCodeInvalidStructure, "invalid PDB id: %q (expected 4 characters starting with a digit)", id)
	}

	return nil
}

// uniprotRegex matches UniProt accessions (e.g., "P12345", "A0A0B4J2F2").
var uniprotRegex = regexp.MustCompile(`^[OPQ][0-9][A-Z0-9]{3}[0-9]$|^[A-NR-Z][0-9]([A-Z][A-Z0-9]{2}[0-9]){1,2}$`)

// ValidateUniProtID validates a UniProt accession used for AlphaFold DB lookups.
func ValidateUniProtID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidStructure, "UniProt accession cannot be empty")
	}

	if !uniprotRegex.MatchString(strings.ToUpper(id)) {
		return New(ErrCodeInvalidStructure, "invalid UniProt accession: %q", id)
	}

	return nil
}

// chainIDRegex matches chain identifiers: short alphanumeric tokens as found
// in PDB/mmCIF files (single letters classically, up to 4 characters in
// extended entries).
var chainIDRegex = regexp.MustCompile(`^[A-Za-z0-9]{1,4}$`)

// ValidateChainID validates a chain identifier used in selections.
func ValidateChainID(chain string) error {
	if chain == "" {
		return New(ErrCodeInvalidSelection, "chain id cannot be empty")
	}

	if !chainIDRegex.MatchString(chain) {
		return New(ErrCodeInvalidSelection, "invalid chain id: %q", chain)
	}

	return nil
}

// ValidatePath validates a file path supplied on the command line for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
