package usecase

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/viney-shih/goroutines"
	"golang.org/x/xerrors"

	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/log"
	"github.com/reimerr12/nft-marketplace/base/metrics"
	"github.com/reimerr12/nft-marketplace/domain"
	"github.com/reimerr12/nft-marketplace/domain/catalog"
	"github.com/reimerr12/nft-marketplace/service/cache"
	"github.com/reimerr12/nft-marketplace/service/ipfs"
)

type MetadataUseCaseCfg struct {
	Ipfs        ipfs.Service
	HttpClient  http.Client
	HttpTimeout time.Duration
	// Cache stores parsed documents by identifier; content addressed
	// documents are immutable so entries never need invalidation
	Cache cache.Service
}

type metadataUseCase struct {
	ipfs        ipfs.Service
	httpClient  http.Client
	httpTimeout time.Duration
	cache       cache.Service
	met         metrics.Service
}

func NewMetadataUseCase(cfg *MetadataUseCaseCfg) catalog.MetadataUseCase {
	return &metadataUseCase{
		ipfs:        cfg.Ipfs,
		httpClient:  cfg.HttpClient,
		httpTimeout: cfg.HttpTimeout,
		cache:       cfg.Cache,
		met:         metrics.New("metadata"),
	}
}

func (u *metadataUseCase) GetFromURI(c bCtx.Ctx, uri string) (*catalog.Metadata, error) {
	if len(uri) == 0 {
		return nil, &catalog.MetadataFetchError{Uri: uri, Err: ipfs.ErrEmptyCid}
	}

	if u.cache != nil {
		cached := &catalog.Metadata{}
		if err := u.cache.Get(c, uri, cached); err == nil {
			u.met.BumpSum("get.hit", 1)
			return cached, nil
		}
	}

	data, err := u.fetch(c, uri)
	if err != nil {
		u.met.BumpSum("get.err", 1)
		return nil, &catalog.MetadataFetchError{Uri: uri, Err: err}
	}

	meta, err := u.parse(c, data)
	if err != nil {
		u.met.BumpSum("parse.err", 1)
		return nil, &catalog.MetadataFetchError{Uri: uri, Err: err}
	}

	if u.cache != nil {
		if err := u.cache.Set(c, uri, meta); err != nil {
			c.WithField("err", err).Warn("cache.Set failed")
		}
	}
	return meta, nil
}

// GetBatch resolves uris with bounded concurrency. The result is aligned by
// input position; a nil slot means "metadata unavailable", not absence of
// the token.
func (u *metadataUseCase) GetBatch(c bCtx.Ctx, uris []string, concurrency int) []*catalog.Metadata {
	if concurrency < 1 {
		concurrency = 1
	}
	res := make([]*catalog.Metadata, len(uris))

	pool := goroutines.NewPool(concurrency)
	defer pool.Release()

	wg := sync.WaitGroup{}
	for i, uri := range uris {
		i, uri := i, uri
		wg.Add(1)
		pool.Schedule(func() {
			defer wg.Done()
			meta, err := u.GetFromURI(c, uri)
			if err != nil {
				c.WithFields(log.Fields{
					"uri": uri,
					"err": err,
				}).Warn("metadata unavailable")
				return
			}
			res[i] = meta
		})
	}
	wg.Wait()

	return res
}

func (u *metadataUseCase) fetch(c bCtx.Ctx, uri string) ([]byte, error) {
	pUrl, err := url.Parse(uri)
	if err == nil && (pUrl.Scheme == "http" || pUrl.Scheme == "https") && !ipfs.IsContentUri(uri) {
		return u.getHttp(c, uri)
	}
	if err == nil && len(pUrl.Scheme) > 0 && pUrl.Scheme != "http" && pUrl.Scheme != "https" && pUrl.Scheme != "ipfs" {
		c.WithField("scheme", pUrl.Scheme).Warn("unsupported uri scheme")
		return nil, domain.ErrUnsupportedSchema
	}

	cid, err := ipfs.ExtractCid(uri)
	if err != nil {
		return nil, err
	}
	return u.ipfs.Get(c, cid)
}

func (u *metadataUseCase) parse(c bCtx.Ctx, data []byte) (*catalog.Metadata, error) {
	if !json.Valid(data) {
		mtype := mimetype.Detect(data)
		c.WithFields(log.Fields{
			"mimeType": mtype.String(),
		}).Error("document body is not json")
		return nil, domain.ErrInvalidJsonFormat
	}

	meta := &catalog.Metadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		c.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	meta.RawMessage = json.RawMessage(data)
	u.annotateImage(meta)
	return meta, nil
}

// annotateImage derives a gateway url for the embedded image reference,
// canonicalizing with the same identifier extraction as the document itself.
func (u *metadataUseCase) annotateImage(meta *catalog.Metadata) {
	if len(meta.Image) == 0 {
		return
	}
	if cid, err := ipfs.ExtractCid(meta.Image); err == nil && ipfs.IsContentUri(meta.Image) {
		meta.ImageGatewayUrl = u.ipfs.GatewayUrl(cid)
		return
	}
	meta.ImageGatewayUrl = meta.Image
}

func (u *metadataUseCase) getHttp(c bCtx.Ctx, uri string) ([]byte, error) {
	ctx, cancel := bCtx.WithTimeout(c, u.httpTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		ctx.WithField("url", uri).Warn("failed with request")
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ctx.WithFields(log.Fields{
			"url":        uri,
			"statusCode": resp.StatusCode,
		}).Error("resp.StatusCode not 2xx")
		return nil, xerrors.Errorf("resp.StatusCode not 2xx")
	}
	return ioutil.ReadAll(resp.Body)
}
