// Package wallet owns the process-wide signing identity and the connection
// context derived from it.
package wallet

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"

	"github.com/claimstake/console/internal/config"
	"github.com/claimstake/console/pkg/actionErrors"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Connection is the identity reads and writes are issued for.
type Connection struct {
	Connected bool
	Address   common.Address
	ChainId   *big.Int
}

func Disconnected() Connection {
	return Connection{}
}

// Equal reports whether two connections refer to the same address on the
// same chain.
func (c Connection) Equal(other Connection) bool {
	if c.Connected != other.Connected || c.Address != other.Address {
		return false
	}
	if c.ChainId == nil || other.ChainId == nil {
		return c.ChainId == other.ChainId
	}
	return c.ChainId.Cmp(other.ChainId) == 0
}

type ChainIdSource interface {
	GetChainId(ctx context.Context) (*big.Int, error)
}

// Approver decides whether a prepared transaction gets signed.
type Approver interface {
	ApproveSignature(label string, tx *types.Transaction) bool
}

type AutoApprover struct{}

func (AutoApprover) ApproveSignature(string, *types.Transaction) bool {
	return true
}

// PromptApprover asks on Out and reads a y/n answer from In.
type PromptApprover struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
	mu     sync.Mutex
}

func NewPromptApprover(in io.Reader, out io.Writer) *PromptApprover {
	return &PromptApprover{In: in, Out: out, reader: bufio.NewReader(in)}
}

func (p *PromptApprover) ApproveSignature(label string, tx *types.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}

	to := "<none>"
	if tx.To() != nil {
		to = tx.To().Hex()
	}
	fmt.Fprintf(p.Out, "Sign '%s' to %s (nonce %d, gas %d)? [y/N]: ", label, to, tx.Nonce(), tx.Gas())

	answer, err := p.reader.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

type Wallet struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	approver Approver
	logger   *zap.Logger

	mu         sync.RWMutex
	connection Connection
}

// NewWallet loads the signing key. An empty key yields a wallet that can
// never connect, which keeps every read at its default.
func NewWallet(cfg *config.WalletConfig, approver Approver, l *zap.Logger) (*Wallet, error) {
	w := &Wallet{
		approver: approver,
		logger:   l,
	}
	if approver == nil {
		w.approver = AutoApprover{}
	}

	keyHex := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x")
	if keyHex == "" {
		return w, nil
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load wallet private key")
	}
	w.key = key
	w.address = crypto.PubkeyToAddress(key.PublicKey)
	return w, nil
}

func (w *Wallet) HasKey() bool {
	return w.key != nil
}

// Connect resolves the chain id and marks the identity connected.
func (w *Wallet) Connect(ctx context.Context, chain ChainIdSource) (Connection, error) {
	if w.key == nil {
		return Disconnected(), errors.New("no wallet key configured")
	}
	chainId, err := chain.GetChainId(ctx)
	if err != nil {
		w.logger.Sugar().Errorw("Failed to fetch chain id", zap.Error(err))
		return w.Connection(), errors.Wrap(err, "failed to fetch chain id")
	}

	conn := Connection{
		Connected: true,
		Address:   w.address,
		ChainId:   chainId,
	}
	w.mu.Lock()
	w.connection = conn
	w.mu.Unlock()

	w.logger.Sugar().Infow("Wallet connected",
		zap.String("address", conn.Address.Hex()),
		zap.String("chainId", chainId.String()),
	)
	return conn, nil
}

func (w *Wallet) Disconnect() Connection {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connection = Disconnected()
	return w.connection
}

func (w *Wallet) Connection() Connection {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connection
}

// TransactOpts returns signing options bound to the connected identity. The
// approver is consulted for every signature; declining yields
// ErrUserRejectedSignature.
func (w *Wallet) TransactOpts(ctx context.Context, label string) (*bind.TransactOpts, error) {
	conn := w.Connection()
	if !conn.Connected {
		return nil, actionErrors.ErrNotConnected
	}
	opts, err := bind.NewKeyedTransactorWithChainID(w.key, conn.ChainId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build transactor")
	}
	opts.Context = ctx

	sign := opts.Signer
	opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if !w.approver.ApproveSignature(label, tx) {
			w.logger.Sugar().Infow("Signature declined", zap.String("action", label))
			return nil, actionErrors.ErrUserRejectedSignature
		}
		return sign(from, tx)
	}
	return opts, nil
}
