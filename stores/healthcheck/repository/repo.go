package repository

import (
	"time"

	"github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/domain"
	hcdomain "github.com/reimerr12/nft-marketplace/domain/healthcheck"
)

type impl struct {
	client domain.EthClientRepo
}

func New(client domain.EthClientRepo) hcdomain.HealthCheckRepo {
	return &impl{
		client: client,
	}
}

func (im *impl) PingChain(context ctx.Ctx) error {
	ctx, cancel := ctx.WithTimeout(context, 2*time.Second)
	defer cancel()
	if _, err := im.client.BlockNumber(ctx); err != nil {
		context.WithField("err", err).Error("ping chain endpoint error")
		return err
	}
	return nil
}
