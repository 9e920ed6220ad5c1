package usecase

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/domain"
	"github.com/reimerr12/nft-marketplace/domain/catalog"
	"github.com/reimerr12/nft-marketplace/service/cache"
	"github.com/reimerr12/nft-marketplace/service/cache/provider/primitive"
	"github.com/reimerr12/nft-marketplace/service/ipfs"
)

type fakeIpfs struct {
	docs  map[string][]byte
	calls int32
}

func (f *fakeIpfs) Get(c bCtx.Ctx, cid string) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	doc, ok := f.docs[cid]
	if !ok {
		return nil, ipfs.ErrRequestFailed
	}
	return doc, nil
}

func (f *fakeIpfs) GatewayUrl(cid string) string {
	return "https://ipfs.example/ipfs/" + cid
}

func newTestUseCase(node *fakeIpfs, withCache bool) catalog.MetadataUseCase {
	cfg := &MetadataUseCaseCfg{
		Ipfs:        node,
		HttpClient:  http.Client{},
		HttpTimeout: 2 * time.Second,
	}
	if withCache {
		cfg.Cache = cache.New(cache.ServiceConfig{
			Ttl:   time.Minute,
			Pfx:   "metadata",
			Cache: primitive.NewPrimitive("metadata", 16),
		})
	}
	return NewMetadataUseCase(cfg)
}

func TestGetFromURIParsesContentDocument(t *testing.T) {
	node := &fakeIpfs{docs: map[string][]byte{
		"QmFoo/1": []byte(`{"name":"Whale","description":"big","image":"ipfs://QmImg/1"}`),
	}}
	u := newTestUseCase(node, false)

	meta, err := u.GetFromURI(bCtx.Background(), "ipfs://QmFoo/1")
	require.NoError(t, err)
	require.Equal(t, "Whale", meta.Name)
	require.Equal(t, "big", meta.Description)
	require.Equal(t, "https://ipfs.example/ipfs/QmImg/1", meta.ImageGatewayUrl)
	require.JSONEq(t, `{"name":"Whale","description":"big","image":"ipfs://QmImg/1"}`, string(meta.RawMessage))
}

func TestGetFromURIFetchesHttp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"HttpToken","image":"https://cdn.example/img.png"}`)
	}))
	defer srv.Close()

	u := newTestUseCase(&fakeIpfs{}, false)
	meta, err := u.GetFromURI(bCtx.Background(), srv.URL+"/meta/1.json")
	require.NoError(t, err)
	require.Equal(t, "HttpToken", meta.Name)
	require.Equal(t, "https://cdn.example/img.png", meta.ImageGatewayUrl)
}

func TestGetFromURIWrapsFailures(t *testing.T) {
	u := newTestUseCase(&fakeIpfs{docs: map[string][]byte{}}, false)

	_, err := u.GetFromURI(bCtx.Background(), "ipfs://QmMissing")
	require.Error(t, err)
	fetchErr := &catalog.MetadataFetchError{}
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, "ipfs://QmMissing", fetchErr.Uri)
}

func TestGetFromURIRejectsNonJson(t *testing.T) {
	node := &fakeIpfs{docs: map[string][]byte{
		"QmPng": {0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a},
	}}
	u := newTestUseCase(node, false)

	_, err := u.GetFromURI(bCtx.Background(), "ipfs://QmPng")
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrInvalidJsonFormat)
}

func TestGetFromURIServesSecondReadFromCache(t *testing.T) {
	node := &fakeIpfs{docs: map[string][]byte{
		"QmFoo": []byte(`{"name":"Cached"}`),
	}}
	u := newTestUseCase(node, true)

	first, err := u.GetFromURI(bCtx.Background(), "ipfs://QmFoo")
	require.NoError(t, err)
	second, err := u.GetFromURI(bCtx.Background(), "ipfs://QmFoo")
	require.NoError(t, err)
	require.Equal(t, first.Name, second.Name)
	require.Equal(t, int32(1), atomic.LoadInt32(&node.calls))
}

func TestGetBatchAlignsByPosition(t *testing.T) {
	node := &fakeIpfs{docs: map[string][]byte{
		"QmA": []byte(`{"name":"A"}`),
		"QmC": []byte(`{"name":"C"}`),
	}}
	u := newTestUseCase(node, false)

	res := u.GetBatch(bCtx.Background(), []string{"ipfs://QmA", "ipfs://QmB", "ipfs://QmC"}, 2)
	require.Len(t, res, 3)
	require.Equal(t, "A", res[0].Name)
	require.Nil(t, res[1])
	require.Equal(t, "C", res[2].Name)
}
