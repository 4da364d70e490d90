package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flatmol/flatmol/pkg/cache"
	"github.com/flatmol/flatmol/pkg/errors"
)

func testAFDB(serverURL string) *AFDBClient {
	return &AFDBClient{
		Client:  NewClient(cache.NewNullCache(), time.Hour),
		baseURL: serverURL,
		version: "v6",
	}
}

func TestAFDBFetch(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte("data_AF-P12345\n"))
	}))
	defer server.Close()

	c := testAFDB(server.URL)
	body, err := c.Fetch(context.Background(), "p12345", false)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(body) == 0 {
		t.Error("empty body")
	}
	if path != "/AF-P12345-F1-model_v6.cif" {
		t.Errorf("request path = %q, want /AF-P12345-F1-model_v6.cif", path)
	}
}

func TestAFDBFetchInvalidAccession(t *testing.T) {
	c := testAFDB("http://unused")
	_, err := c.Fetch(context.Background(), "12345", false)
	if err == nil {
		t.Fatal("Fetch() with bad accession should fail before any request")
	}
	if !errors.Is(err, errors.ErrCodeInvalidStructure) {
		t.Errorf("error code = %v, want INVALID_STRUCTURE", errors.GetCode(err))
	}
}

func TestAFDBFetchPAE(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`[{"predicted_aligned_error": [[0.0, 4.5], [4.5, 0.0]]}]`))
	}))
	defer server.Close()

	c := testAFDB(server.URL)
	pae, n, err := c.FetchPAE(context.Background(), "P12345", false)
	if err != nil {
		t.Fatalf("FetchPAE() error: %v", err)
	}
	if path != "/AF-P12345-F1-predicted_aligned_error_v6.json" {
		t.Errorf("request path = %q", path)
	}
	if n != 2 {
		t.Errorf("dimension = %d, want 2", n)
	}
	want := []uint8{0, 36, 36, 0}
	for i, v := range want {
		if pae[i] != v {
			t.Errorf("pae[%d] = %d, want %d", i, pae[i], v)
		}
	}
}

func TestAFDBFetchPAEMissing(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := testAFDB(server.URL)
	_, _, err := c.FetchPAE(context.Background(), "P12345", false)
	if !errors.Is(err, errors.ErrCodeStructureNotFound) {
		t.Errorf("error code = %v, want STRUCTURE_NOT_FOUND", errors.GetCode(err))
	}
}
