package ipfs

import (
	"errors"
	"fmt"
	"strings"

	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
)

var (
	ErrEmptyCid      = errors.New("empty content identifier")
	ErrRequestFailed = errors.New("request failed")
)

// Service fetches content-addressed documents. All fetches go through a
// single shared dispatch queue enforcing a max number of in-flight requests
// and a minimum spacing between dispatches, because the upstream gateway
// rate limit is global, not per caller.
type Service interface {
	Get(c bCtx.Ctx, cid string) ([]byte, error)
	GatewayUrl(cid string) string
}

// ExtractCid normalizes the three accepted identifier forms to one bare
// identifier:
//   - scheme-prefixed:  ipfs://QmFoo/0
//   - path-embedded:    https://gateway.example/ipfs/QmFoo/0
//   - bare:             QmFoo/0
func ExtractCid(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "ipfs://") {
		s = strings.TrimPrefix(s, "ipfs://")
		// some early collections double the prefix, e.g. ipfs://ipfs/Qm...
		s = strings.TrimPrefix(s, "ipfs/")
	} else if idx := strings.Index(s, "/ipfs/"); idx >= 0 {
		s = s[idx+len("/ipfs/"):]
	}
	s = strings.TrimPrefix(s, "/")
	if len(s) == 0 {
		return "", ErrEmptyCid
	}
	return s, nil
}

// IsContentUri reports whether the raw reference points into content
// addressed storage at all.
func IsContentUri(raw string) bool {
	return strings.HasPrefix(raw, "ipfs://") || strings.Contains(raw, "/ipfs/") ||
		(!strings.Contains(raw, "://") && len(raw) > 0)
}

func gatewayUrl(gateway, cid string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(gateway, "/"), cid)
}
