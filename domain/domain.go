package domain

import (
	"math/big"
	"strings"

	"golang.org/x/xerrors"
)

type SortDir int8

const (
	SortDirAsc  SortDir = 1
	SortDirDesc SortDir = -1
)

type ChainId int32

type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

// TokenId is an opaque, stringifiable integer identity, stable for the
// lifetime of the token.
type TokenId string

func (i TokenId) String() string {
	return string(i)
}

func (i TokenId) ToBig() (*big.Int, error) {
	id, ok := new(big.Int).SetString(i.String(), 10)
	if !ok {
		return nil, xerrors.Errorf("invalid token id %s", i)
	}
	return id, nil
}

func TokenIdFromBig(id *big.Int) TokenId {
	return TokenId(id.String())
}

type BlockNumber uint64
