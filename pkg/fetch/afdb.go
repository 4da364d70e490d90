package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flatmol/flatmol/pkg/cache"
	"github.com/flatmol/flatmol/pkg/errors"
)

// afdbModelVersion pins the AlphaFold DB file generation.
const afdbModelVersion = "v6"

// AFDBClient downloads predicted structures from the AlphaFold Database.
//
// All methods are safe for concurrent use.
type AFDBClient struct {
	*Client
	baseURL string
	version string
}

// NewAFDBClient creates an AlphaFold DB client with the given cache
// backend.
func NewAFDBClient(backend cache.Cache, ttl time.Duration) *AFDBClient {
	return &AFDBClient{
		Client:  NewClient(backend, ttl),
		baseURL: "https://alphafold.ebi.ac.uk/files",
		version: afdbModelVersion,
	}
}

// Fetch downloads the predicted model mmCIF for a UniProt accession and
// returns the raw file content. Accessions are case-insensitive.
func (c *AFDBClient) Fetch(ctx context.Context, uniprotID string, refresh bool) ([]byte, error) {
	if err := errors.ValidateUniProtID(uniprotID); err != nil {
		return nil, err
	}

	code := strings.ToUpper(uniprotID)
	url := fmt.Sprintf("%s/AF-%s-F1-model_%s.cif", c.baseURL, code, c.version)
	return c.fetchCached(ctx, "afdb", code+"-model-"+c.version, url, refresh)
}

// FetchPAE downloads the predicted aligned error JSON for a UniProt
// accession and returns it in the compact storage form: row-major uint8
// values scaled by 8, plus the matrix dimension.
//
// Not every entry carries PAE data; a STRUCTURE_NOT_FOUND error here
// does not mean the model itself is missing.
func (c *AFDBClient) FetchPAE(ctx context.Context, uniprotID string, refresh bool) ([]uint8, int, error) {
	if err := errors.ValidateUniProtID(uniprotID); err != nil {
		return nil, 0, err
	}

	code := strings.ToUpper(uniprotID)
	url := fmt.Sprintf("%s/AF-%s-F1-predicted_aligned_error_%s.json", c.baseURL, code, c.version)
	body, err := c.fetchCached(ctx, "afdb", code+"-pae-"+c.version, url, refresh)
	if err != nil {
		return nil, 0, err
	}
	return ParsePAE(body)
}
