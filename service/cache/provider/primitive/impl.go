package primitive

import (
	"time"

	"github.com/coocood/freecache"

	"github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/service/cache/provider"
)

type impl struct {
	name  string
	cache freecache.Cache
}

func NewPrimitive(name string, sizeMb int) provider.Provider {
	return &impl{name, *freecache.NewCache(sizeMb * 1024 * 1024)}
}

func (im *impl) Get(c ctx.Ctx, key string) ([]byte, time.Duration, error) {
	if val, ttl, err := im.cache.GetWithExpiration([]byte(key)); err != nil {
		if err == freecache.ErrNotFound {
			return nil, time.Duration(0), provider.ErrNotFound
		}
		c.WithField("err", err).WithField("key", key).Error("cache.Get failed")
		return nil, time.Duration(0), err
	} else {
		return val, time.Duration(ttl) * time.Second, nil
	}
}

func (im *impl) Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error {
	if err := im.cache.Set([]byte(key), value, int(ttl.Seconds())); err != nil {
		c.WithField("err", err).WithField("key", key).Error("cache.Set failed")
		return err
	}
	return nil
}

func (im *impl) Del(c ctx.Ctx, key string) error {
	im.cache.Del([]byte(key))
	return nil
}
