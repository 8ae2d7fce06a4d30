package chain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
)

// ScopedAccountFilters builds the filter set for the scoped program
// subscription: an exact data-size match plus two byte-range equality
// constraints, one on a constant tag and one on the configured authority.
func ScopedAccountFilters(dataSize uint64, tagOffset uint64, tag string, authorityOffset uint64, authority solana.PublicKey) ([]rpc.RPCFilter, error) {
	tagBytes, err := base58.Decode(tag)
	if err != nil {
		return nil, fmt.Errorf("decode scoped tag %q: %w", tag, err)
	}
	return []rpc.RPCFilter{
		{DataSize: dataSize},
		{Memcmp: &rpc.RPCFilterMemcmp{
			Offset: tagOffset,
			Bytes:  solana.Base58(tagBytes),
		}},
		{Memcmp: &rpc.RPCFilterMemcmp{
			Offset: authorityOffset,
			Bytes:  solana.Base58(authority.Bytes()),
		}},
	}, nil
}
