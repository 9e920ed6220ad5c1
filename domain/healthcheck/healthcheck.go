package healthcheck

import (
	"github.com/reimerr12/nft-marketplace/base/ctx"
)

type HealthCheckRepo interface {
	PingChain(ctx.Ctx) error
}

type HealthCheckUsecase interface {
	Check(ctx.Ctx) error
}
