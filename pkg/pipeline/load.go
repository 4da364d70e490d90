package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/flatmol/flatmol/pkg/cache"
	"github.com/flatmol/flatmol/pkg/errors"
	"github.com/flatmol/flatmol/pkg/fetch"
	"github.com/flatmol/flatmol/pkg/mol"
	"github.com/flatmol/flatmol/pkg/mol/pdb"
)

// structureTTL bounds how long parsed structures stay cached. Deposited
// entries are immutable, so this is generous.
const structureTTL = 30 * 24 * time.Hour

// loaded carries one parsed structure through the pipeline.
type loaded struct {
	frames []*mol.Frame
	// hash of the raw structure bytes; artifact keys derive from it.
	hash string
	// pae is the optional AFDB error matrix for the whole structure.
	pae     []uint8
	paeSize int
}

// cachedStructure is the parsed-stage cache payload.
type cachedStructure struct {
	Frames  []*mol.Frame `json:"frames"`
	Hash    string       `json:"hash"`
	PAE     []uint8      `json:"pae,omitempty"`
	PAESize int          `json:"pae_size,omitempty"`
}

// loadWithCacheInfo fetches and parses the structure selected by opts,
// reporting whether the parsed form came from cache.
func (r *Runner) loadWithCacheInfo(ctx context.Context, opts Options) (*loaded, bool, error) {
	key := r.Keyer.StructureKey(opts.sourceID(), cache.StructureKeyOpts{
		Source: opts.source(),
		Format: structureFormat(opts),
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cs cachedStructure
			if err := json.Unmarshal(data, &cs); err == nil && len(cs.Frames) > 0 {
				return restoreCached(&cs, opts), true, nil
			}
			// Corrupt entry: fall through and recompute.
			r.Logger.Debugf("discarding unreadable structure cache entry %s", key)
		}
	}

	ld, err := r.load(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	payload, err := json.Marshal(cachedStructure{
		Frames:  ld.frames,
		Hash:    ld.hash,
		PAE:     ld.pae,
		PAESize: ld.paeSize,
	})
	if err == nil {
		if err := r.Cache.Set(ctx, key, payload, structureTTL); err != nil {
			r.Logger.Debugf("structure cache write failed: %v", err)
		}
	}
	return ld, false, nil
}

// load reads the structure from its source and parses it.
func (r *Runner) load(ctx context.Context, opts Options) (*loaded, error) {
	parseOpts := pdb.Options{Chains: opts.Chains}

	var raw []byte
	var format pdb.Format
	var err error

	switch {
	case opts.PDBID != "":
		client := fetch.NewRCSBClient(r.Cache, structureTTL)
		raw, err = client.Fetch(ctx, opts.PDBID, opts.Refresh)
		format = pdb.FormatMMCIF
	case opts.UniProtID != "":
		client := fetch.NewAFDBClient(r.Cache, structureTTL)
		raw, err = client.Fetch(ctx, opts.UniProtID, opts.Refresh)
		format = pdb.FormatMMCIF
	default:
		raw, err = os.ReadFile(opts.Input)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", opts.Input)
		}
		format = pdb.FormatFromPath(opts.Input)
	}
	if err != nil {
		return nil, err
	}

	frames, err := pdb.Parse(raw, format, parseOpts)
	if err != nil {
		return nil, err
	}

	ld := &loaded{frames: frames, hash: cache.Hash(raw)}

	if opts.WithPAE && opts.UniProtID != "" {
		client := fetch.NewAFDBClient(r.Cache, structureTTL)
		pae, size, err := client.FetchPAE(ctx, opts.UniProtID, opts.Refresh)
		if err != nil {
			// The structure still renders without PAE; note and move on.
			r.Logger.Warnf("PAE fetch for %s failed: %v", opts.UniProtID, err)
		} else {
			ld.pae = pae
			ld.paeSize = size
		}
	}

	applyPAE(ld)
	return ld, nil
}

// restoreCached rebuilds a loaded structure from its cache payload.
func restoreCached(cs *cachedStructure, opts Options) *loaded {
	ld := &loaded{
		frames:  cs.Frames,
		hash:    cs.Hash,
		pae:     cs.PAE,
		paeSize: cs.PAESize,
	}
	if !opts.WithPAE {
		ld.pae = nil
		ld.paeSize = 0
		for _, f := range ld.frames {
			f.PAE = nil
			f.PAESize = 0
		}
	}
	applyPAE(ld)
	return ld
}

// applyPAE attaches the structure-level PAE matrix to the first frame,
// where the color-mode default logic looks for it.
func applyPAE(ld *loaded) {
	if len(ld.pae) == 0 || len(ld.frames) == 0 {
		return
	}
	ld.frames[0].PAE = ld.pae
	ld.frames[0].PAESize = ld.paeSize
}

func structureFormat(opts Options) string {
	if opts.Input != "" {
		return pdb.FormatFromPath(opts.Input).String()
	}
	return "cif"
}
