package catalog

import (
	"encoding/json"
	"fmt"

	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
)

// Metadata is the content-addressed document of one token. Arbitrary keys are
// kept in RawMessage; the known name-like fields are lifted for querying.
type Metadata struct {
	RawMessage  json.RawMessage `json:"-"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	ExternalUrl string          `json:"external_url"`
	Attributes  []Attribute     `json:"attributes"`

	// ImageGatewayUrl is derived from Image by the content resolver so the
	// caller never has to touch identifier extraction again.
	ImageGatewayUrl string `json:"imageGatewayUrl"`
}

type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// MetadataFetchError carries the identifier whose document could not be
// resolved. The entry keeps its ledger info with Metadata == nil.
type MetadataFetchError struct {
	Uri string
	Err error
}

func (e *MetadataFetchError) Error() string {
	return fmt.Sprintf("failed to fetch metadata for %s: %v", e.Uri, e.Err)
}

func (e *MetadataFetchError) Unwrap() error {
	return e.Err
}

// MetadataUseCase resolves token URIs into metadata documents.
type MetadataUseCase interface {
	GetFromURI(c bCtx.Ctx, uri string) (*Metadata, error)
	// GetBatch returns a slice aligned by input position; failed entries are
	// nil, meaning "metadata unavailable", not absence of the token.
	GetBatch(c bCtx.Ctx, uris []string, concurrency int) []*Metadata
}
