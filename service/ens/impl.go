package ens

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	goens "github.com/wealdtech/go-ens/v3"

	"github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/log"
	"github.com/reimerr12/nft-marketplace/base/ptr"
	"github.com/reimerr12/nft-marketplace/domain"
	"github.com/reimerr12/nft-marketplace/service/cache"
	"github.com/reimerr12/nft-marketplace/service/cache/provider/primitive"
)

type impl struct {
	client *ethclient.Client
	cache  cache.Service
}

func New(rpc string) (ENS, error) {
	client, err := ethclient.Dial(rpc)
	if err != nil {
		return nil, err
	}
	return &impl{
		client,
		cache.New(cache.ServiceConfig{
			Ttl:   30 * time.Minute,
			Pfx:   "ens",
			Cache: primitive.NewPrimitive("ens", 32),
		}),
	}, nil
}

// ReverseResolve maps an address to its primary ENS name, empty when the
// address has none. Best-effort annotation, results are cached.
func (im *impl) ReverseResolve(c ctx.Ctx, address domain.Address) (string, error) {
	res := ""
	key := fmt.Sprintf("reverse-resolve:%s", address.ToLowerStr())
	err := im.cache.GetByFunc(c, key, &res, func() (interface{}, error) {
		name, err := goens.ReverseResolve(im.client, common.HexToAddress(string(address)))
		if fmt.Sprint(err) == "not a resolver" {
			return ptr.String(""), nil
		}
		if err != nil {
			c.WithFields(log.Fields{
				"err": err,
			}).Error("failed to goens.ReverseResolve")
			return nil, err
		}
		return &name, nil
	})

	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
		}).Error("failed to cache.GetByFunc")
		return "", err
	}

	return res, nil
}
