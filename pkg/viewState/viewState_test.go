package viewState

import (
	"math/big"
	"sync"
	"testing"

	"github.com/claimstake/console/pkg/contractGateway"
	"github.com/claimstake/console/pkg/paginator"
	"github.com/claimstake/console/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func Test_Store(t *testing.T) {
	l := zap.NewNop()

	t.Run("Starts disconnected with defaults", func(t *testing.T) {
		s := NewStore(l).Snapshot()
		assert.False(t, s.Connection.Connected)
		assert.Equal(t, paginator.DefaultWindow(), s.Window)
		assert.Equal(t, int64(0), s.TokenBalance.Int64())
		assert.Equal(t, uint64(0), s.Claim.ClaimStart)
	})
	t.Run("Snapshots are not affected by later transitions", func(t *testing.T) {
		store := NewStore(l)
		before := store.Apply(TokenBalanceLoaded(big.NewInt(5)))
		after := store.Apply(TokenBalanceLoaded(big.NewInt(9)))

		assert.Equal(t, int64(5), before.TokenBalance.Int64())
		assert.Equal(t, int64(9), after.TokenBalance.Int64())
		assert.Equal(t, before.Revision+1, after.Revision)
		assert.Equal(t, 2, store.AppliedCount("tokenBalanceLoaded"))
	})
	t.Run("Loaded amounts are copied", func(t *testing.T) {
		store := NewStore(l)
		amount := big.NewInt(10)
		store.Apply(ClaimableAmountLoaded(amount))
		amount.SetInt64(99)

		assert.Equal(t, int64(10), store.Snapshot().Claim.ClaimableAmount.Int64())
	})
	t.Run("Connection change resets derived state and the page", func(t *testing.T) {
		store := NewStore(l)
		store.Apply(StakePageLoaded(paginator.PageWindow{Page: 3, Limit: 25}, []*contractGateway.StakeRecord{{Index: 50, Amount: big.NewInt(1)}}))
		store.Apply(TokenBalanceLoaded(big.NewInt(7)))
		store.Apply(OwnerLoaded(common.HexToAddress("0x01")))

		conn := wallet.Connection{Connected: true, Address: common.HexToAddress("0x02"), ChainId: big.NewInt(1)}
		s := store.Apply(ConnectionChanged(conn))

		assert.True(t, s.Connection.Connected)
		assert.Equal(t, paginator.PageWindow{Page: 1, Limit: 25}, s.Window)
		assert.Len(t, s.Stakes, 0)
		assert.Equal(t, int64(0), s.TokenBalance.Int64())
		assert.False(t, s.Claim.OwnerKnown)
	})
	t.Run("Each field has its own transition", func(t *testing.T) {
		store := NewStore(l)
		store.Apply(TokenMetadataLoaded(contractGateway.TokenMetadata{Decimals: 6, Symbol: "USDX"}))
		store.Apply(StakingEnabledLoaded(true))
		store.Apply(ClaimStartLoaded(1700000000))
		s := store.Apply(MessageSet("done"))

		assert.True(t, s.TokenKnown)
		assert.Equal(t, uint8(6), s.Decimals)
		assert.Equal(t, "USDX", s.Symbol)
		assert.True(t, s.StakingEnabled)
		assert.Equal(t, uint64(1700000000), s.Claim.ClaimStart)
		assert.Equal(t, "done", s.LastMessage)
	})
	t.Run("Concurrent transitions are serialised", func(t *testing.T) {
		store := NewStore(l)
		wg := sync.WaitGroup{}
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				store.Apply(StakingEnabledLoaded(true))
			}()
		}
		wg.Wait()
		assert.Equal(t, uint64(50), store.Snapshot().Revision)
	})
}
