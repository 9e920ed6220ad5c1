package usecase

import (
	"github.com/reimerr12/nft-marketplace/base/ctx"
	hcdomain "github.com/reimerr12/nft-marketplace/domain/healthcheck"
)

type impl struct {
	repo hcdomain.HealthCheckRepo
}

func New(repo hcdomain.HealthCheckRepo) hcdomain.HealthCheckUsecase {
	return &impl{
		repo: repo,
	}
}

func (im *impl) Check(context ctx.Ctx) error {
	return im.repo.PingChain(context)
}
