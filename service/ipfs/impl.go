package ipfs

import (
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	ipfsapi "github.com/ipfs/go-ipfs-api"
	"golang.org/x/xerrors"

	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/log"
	"github.com/reimerr12/nft-marketplace/base/metrics"
)

const (
	defaultMaxInflight = 4
	defaultMinSpacing  = 250 * time.Millisecond
)

type ServiceCfg struct {
	// Gateway is the public gateway prefix, e.g. https://ipfs.io/ipfs
	Gateway    string
	HttpClient http.Client
	Timeout    time.Duration
	// MaxInflight bounds concurrent dispatches, default 4
	MaxInflight int
	// MinSpacing is the minimum time between two dispatches, default 250ms
	MinSpacing time.Duration
	// NodeApi reads through a go-ipfs node instead of the gateway when set
	NodeApi *ipfsapi.Shell
}

type impl struct {
	gateway    string
	client     http.Client
	timeout    time.Duration
	shell      *ipfsapi.Shell
	minSpacing time.Duration
	tokens     chan int

	mu           sync.Mutex
	lastDispatch time.Time

	met metrics.Service
}

func New(cfg *ServiceCfg) Service {
	maxInflight := cfg.MaxInflight
	if maxInflight == 0 {
		maxInflight = defaultMaxInflight
	}
	minSpacing := cfg.MinSpacing
	if minSpacing == 0 {
		minSpacing = defaultMinSpacing
	}
	tokens := make(chan int, maxInflight)
	for i := 0; i < maxInflight; i++ {
		tokens <- i + 1
	}
	return &impl{
		gateway:    cfg.Gateway,
		client:     cfg.HttpClient,
		timeout:    cfg.Timeout,
		shell:      cfg.NodeApi,
		minSpacing: minSpacing,
		tokens:     tokens,
		met:        metrics.New("ipfs"),
	}
}

func (im *impl) GatewayUrl(cid string) string {
	return gatewayUrl(im.gateway, cid)
}

func (im *impl) Get(c bCtx.Ctx, cid string) ([]byte, error) {
	token, err := im.before(c)
	if err != nil {
		return nil, err
	}
	defer im.after(token)

	defer im.met.BumpTime("get.latency").End()

	if im.shell != nil {
		return im.getFromNode(c, cid)
	}
	return im.getFromGateway(c, cid)
}

// before acquires a dispatch token and enforces the minimum spacing between
// dispatches across all callers.
func (im *impl) before(c bCtx.Ctx) (int, error) {
	var token int
	select {
	case <-c.Done():
		return 0, c.Err()
	case token = <-im.tokens:
	}

	im.mu.Lock()
	for {
		// recompute after every wakeup; another waiter may have dispatched
		// while the lock was released
		wait := im.minSpacing - time.Since(im.lastDispatch)
		if wait <= 0 {
			break
		}
		im.mu.Unlock()
		select {
		case <-c.Done():
			im.after(token)
			return 0, c.Err()
		case <-time.After(wait):
		}
		im.mu.Lock()
	}
	im.lastDispatch = time.Now()
	im.mu.Unlock()

	im.met.BumpAvg("queue.inflight", float64(cap(im.tokens)-len(im.tokens)))
	return token, nil
}

func (im *impl) after(token int) {
	if token != 0 {
		im.tokens <- token
	}
}

func (im *impl) getFromGateway(c bCtx.Ctx, cid string) ([]byte, error) {
	url := im.GatewayUrl(cid)
	ctx, cancel := bCtx.WithTimeout(c, im.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := im.client.Do(req)
	if err != nil {
		ctx.WithField("cid", cid).Warn("failed with request")
		im.met.BumpSum("get.err", 1, "reason", "network")
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ctx.WithFields(log.Fields{
			"cid":        cid,
			"statusCode": resp.StatusCode,
		}).Error("resp.StatusCode not 2xx")
		im.met.BumpSum("get.err", 1, "reason", "status")
		return nil, xerrors.Errorf("gateway returned status %d: %w", resp.StatusCode, ErrRequestFailed)
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		ctx.WithFields(log.Fields{
			"cid": cid,
			"err": err,
		}).Error("failed to read body")
		return nil, err
	}
	if len(body) == 0 {
		return nil, xerrors.Errorf("empty body for %s: %w", cid, ErrRequestFailed)
	}
	return body, nil
}

func (im *impl) getFromNode(c bCtx.Ctx, cid string) ([]byte, error) {
	ctx, cancel := bCtx.WithTimeout(c, im.timeout)
	defer cancel()
	resp, err := im.shell.Request("cat", cid).Send(ctx)
	if err != nil {
		c.WithField("err", err).Error("shell.Request failed")
		im.met.BumpSum("get.err", 1, "reason", "node")
		return nil, err
	}
	defer resp.Close()
	if resp.Error != nil {
		c.WithField("err", resp.Error).Error("shell request returned error")
		return nil, resp.Error
	}
	body, err := ioutil.ReadAll(resp.Output)
	if err != nil {
		c.WithField("err", err).Error("failed to read output")
		return nil, err
	}
	return body, nil
}
