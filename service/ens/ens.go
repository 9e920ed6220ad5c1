package ens

import (
	"github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/domain"
)

type ENS interface {
	ReverseResolve(ctx ctx.Ctx, address domain.Address) (string, error)
}
