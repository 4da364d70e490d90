package errors

import (
	"testing"
)

func TestValidateObjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "1ubq", false},
		{"valid with dash", "my-structure", false},
		{"valid with underscore", "frame_42", false},
		{"valid with dot", "model.v2", false},
		{"valid with space", "designed binder", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal ..", "foo/../bar", true},
		{"path traversal //", "foo//bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"carriage return", "foo\rbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateObjectName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePDBID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid lowercase", "1ubq", false},
		{"valid uppercase", "6M0J", false},
		{"valid mixed", "2xWr", false},
		{"valid all digits after first", "7123", false},

		{"empty", "", true},
		{"too short", "1ub", true},
		{"too long", "1ubqx", true},
		{"starts with letter", "aubq", true},
		{"contains dash", "1u-q", true},
		{"contains space", "1u q", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePDBID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePDBID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUniProtID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid swissprot", "P12345", false},
		{"valid O accession", "O43175", false},
		{"valid Q accession", "Q9Y6K9", false},
		{"valid trembl long", "A0A0B4J2F2", false},
		{"valid lowercase input", "p12345", false},

		{"empty", "", true},
		{"too short", "P1234", true},
		{"wrong shape", "12345P", true},
		{"pdb id", "1ubq", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUniProtID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUniProtID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateChainID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid single letter", "A", false},
		{"valid lowercase", "b", false},
		{"valid digit", "1", false},
		{"valid extended", "AB12", false},

		{"empty", "", true},
		{"too long", "ABCDE", true},
		{"with space", "A B", true},
		{"with punctuation", "A.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChainID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChainID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid relative", "structures/1ubq.pdb", false},
		{"valid absolute", "/tmp/output.svg", false},
		{"valid with dots", "./state.json", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"null byte", "/tmp/\x00file", true},
		{"control char", "/tmp/\x01file", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid https", "https://files.rcsb.org/download/1ubq.pdb", false},
		{"valid http", "http://localhost:8080/objects", false},

		{"empty", "", true},
		{"no scheme", "files.rcsb.org/download/1ubq.pdb", true},
		{"file scheme", "file:///etc/passwd", true},
		{"ftp scheme", "ftp://example.com/file", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
