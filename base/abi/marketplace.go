package abi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var MarketplaceABI abi.ABI

var marketplaceABI = `[
{"type":"function","name":"getActiveListings","constant":true,"stateMutability":"view","payable":false,"inputs":[],"outputs":[{"type":"uint256[]"}]},
{"type":"function","name":"getActiveAuctions","constant":true,"stateMutability":"view","payable":false,"inputs":[],"outputs":[{"type":"uint256[]"}]},
{"type":"function","name":"getInfo","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"uint256","name":"tokenId"}],"outputs":[{"type":"address","name":"owner"},{"type":"bool","name":"isListed"},{"type":"bool","name":"isAuctioned"},{"type":"uint256","name":"price"},{"type":"uint256","name":"highestBid"},{"type":"uint256","name":"auctionEndTime"}]},
{"type":"function","name":"getCreatedTokens","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"address","name":"account"}],"outputs":[{"type":"uint256[]"}]},
{"type":"function","name":"getPurchasedTokens","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"address","name":"account"}],"outputs":[{"type":"uint256[]"}]},
{"type":"function","name":"getWithdrawableBalance","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"address","name":"account"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"tokenURI","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"uint256","name":"tokenId"}],"outputs":[{"type":"string"}]},
{"type":"event","anonymous":false,"name":"Listed","inputs":[{"type":"uint256","name":"tokenId","indexed":true},{"type":"address","name":"seller","indexed":true},{"type":"uint256","name":"price"}]},
{"type":"event","anonymous":false,"name":"AuctionCreated","inputs":[{"type":"uint256","name":"tokenId","indexed":true},{"type":"address","name":"seller","indexed":true},{"type":"uint256","name":"endTime"}]},
{"type":"event","anonymous":false,"name":"BidPlaced","inputs":[{"type":"uint256","name":"tokenId","indexed":true},{"type":"address","name":"bidder","indexed":true},{"type":"uint256","name":"amount"}]},
{"type":"event","anonymous":false,"name":"AuctionFinalized","inputs":[{"type":"uint256","name":"tokenId","indexed":true},{"type":"address","name":"winner"},{"type":"uint256","name":"amount"}]},
{"type":"event","anonymous":false,"name":"AuctionCancelled","inputs":[{"type":"uint256","name":"tokenId","indexed":true}]},
{"type":"event","anonymous":false,"name":"Purchased","inputs":[{"type":"uint256","name":"tokenId","indexed":true},{"type":"address","name":"buyer","indexed":true},{"type":"uint256","name":"price"}]},
{"type":"event","anonymous":false,"name":"ListingCancelled","inputs":[{"type":"uint256","name":"tokenId","indexed":true}]}
]`

func init() {
	_abi, err := abi.JSON(strings.NewReader(marketplaceABI))
	if err != nil {
		panic("Failed to parse marketplace abi")
	}
	MarketplaceABI = _abi
}

// MutationEventNames is the fixed set of ledger events that invalidate the
// cached catalog.
var MutationEventNames = []string{
	"Listed",
	"AuctionCreated",
	"BidPlaced",
	"AuctionFinalized",
	"AuctionCancelled",
	"Purchased",
	"ListingCancelled",
}

// MutationEventTopics returns the topic filter matching any mutation event.
func MutationEventTopics() [][]common.Hash {
	ids := make([]common.Hash, 0, len(MutationEventNames))
	for _, name := range MutationEventNames {
		ids = append(ids, MarketplaceABI.Events[name].ID)
	}
	return [][]common.Hash{ids}
}
