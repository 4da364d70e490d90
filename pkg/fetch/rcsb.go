package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flatmol/flatmol/pkg/cache"
	"github.com/flatmol/flatmol/pkg/errors"
)

// RCSBClient downloads deposited structures from the RCSB PDB.
//
// All methods are safe for concurrent use.
type RCSBClient struct {
	*Client
	baseURL string
}

// NewRCSBClient creates an RCSB client with the given cache backend.
func NewRCSBClient(backend cache.Cache, ttl time.Duration) *RCSBClient {
	return &RCSBClient{
		Client:  NewClient(backend, ttl),
		baseURL: "https://files.rcsb.org/download",
	}
}

// Fetch downloads the mmCIF entry for a 4-character PDB code and returns
// the raw file content. Codes are case-insensitive.
//
// Returns a STRUCTURE_NOT_FOUND error when the code does not exist and a
// NETWORK error (retried internally) for transport failures.
func (c *RCSBClient) Fetch(ctx context.Context, pdbID string, refresh bool) ([]byte, error) {
	if err := errors.ValidatePDBID(pdbID); err != nil {
		return nil, err
	}

	code := strings.ToUpper(pdbID)
	url := fmt.Sprintf("%s/%s.cif", c.baseURL, code)
	return c.fetchCached(ctx, "rcsb", code, url, refresh)
}
