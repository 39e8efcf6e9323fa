package wallet

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/claimstake/console/internal/config"
	"github.com/claimstake/console/pkg/actionErrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// well known development key
const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type fixedChain struct {
	id  int64
	err error
}

func (f *fixedChain) GetChainId(ctx context.Context) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return big.NewInt(f.id), nil
}

type rejectAll struct{}

func (rejectAll) ApproveSignature(string, *types.Transaction) bool { return false }

func testTx() *types.Transaction {
	to := common.HexToAddress("0x0000000000000000000000000000000000000001")
	return types.NewTx(&types.LegacyTx{Nonce: 1, To: &to, Gas: 21000, GasPrice: big.NewInt(1), Value: big.NewInt(0)})
}

func Test_Wallet(t *testing.T) {
	l := zap.NewNop()

	t.Run("Loads the key and connects", func(t *testing.T) {
		w, err := NewWallet(&config.WalletConfig{PrivateKey: testKey}, nil, l)
		assert.Nil(t, err)
		assert.True(t, w.HasKey())
		assert.False(t, w.Connection().Connected)

		conn, err := w.Connect(context.Background(), &fixedChain{id: 31337})
		assert.Nil(t, err)
		assert.True(t, conn.Connected)
		assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", conn.Address.Hex())
		assert.Equal(t, int64(31337), conn.ChainId.Int64())
		assert.True(t, conn.Equal(w.Connection()))

		assert.False(t, w.Disconnect().Connected)
	})
	t.Run("Empty key never connects", func(t *testing.T) {
		w, err := NewWallet(&config.WalletConfig{}, nil, l)
		assert.Nil(t, err)

		_, err = w.Connect(context.Background(), &fixedChain{id: 1})
		assert.NotNil(t, err)

		_, err = w.TransactOpts(context.Background(), "claim")
		assert.True(t, errors.Is(err, actionErrors.ErrNotConnected))
	})
	t.Run("Invalid key", func(t *testing.T) {
		_, err := NewWallet(&config.WalletConfig{PrivateKey: "zz"}, nil, l)
		assert.NotNil(t, err)
	})
	t.Run("Chain id failure leaves the wallet disconnected", func(t *testing.T) {
		w, _ := NewWallet(&config.WalletConfig{PrivateKey: testKey}, nil, l)
		_, err := w.Connect(context.Background(), &fixedChain{err: errors.New("down")})
		assert.NotNil(t, err)
		assert.False(t, w.Connection().Connected)
	})
	t.Run("Declined signature", func(t *testing.T) {
		w, _ := NewWallet(&config.WalletConfig{PrivateKey: testKey}, rejectAll{}, l)
		_, _ = w.Connect(context.Background(), &fixedChain{id: 1})

		opts, err := w.TransactOpts(context.Background(), "claim")
		assert.Nil(t, err)

		_, err = opts.Signer(opts.From, testTx())
		assert.True(t, errors.Is(err, actionErrors.ErrUserRejectedSignature))
	})
	t.Run("Approved signature", func(t *testing.T) {
		w, _ := NewWallet(&config.WalletConfig{PrivateKey: testKey}, AutoApprover{}, l)
		_, _ = w.Connect(context.Background(), &fixedChain{id: 1})

		opts, err := w.TransactOpts(context.Background(), "claim")
		assert.Nil(t, err)

		signed, err := opts.Signer(opts.From, testTx())
		assert.Nil(t, err)
		v, _, _ := signed.RawSignatureValues()
		assert.NotEqual(t, int64(0), v.Int64())
	})
}

func Test_PromptApprover(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewPromptApprover(strings.NewReader("y\nno\n"), out)

	assert.True(t, p.ApproveSignature("stake", testTx()))
	assert.False(t, p.ApproveSignature("stake", testTx()))
	assert.False(t, p.ApproveSignature("stake", testTx()))
	assert.Contains(t, out.String(), "Sign 'stake'")
}
