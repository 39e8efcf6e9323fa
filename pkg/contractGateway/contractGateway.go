// Package contractGateway binds the token, staking and claiming contracts to
// the connected identity and exposes their reads and writes.
package contractGateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/claimstake/console/internal/config"
	"github.com/claimstake/console/pkg/actionErrors"
	"github.com/claimstake/console/pkg/contractAbi"
	"github.com/claimstake/console/pkg/utils"
	"github.com/claimstake/console/pkg/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Backend is the part of an ethclient the gateway needs.
type Backend interface {
	bind.ContractCaller
	bind.ContractTransactor
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Signer is the connected identity.
type Signer interface {
	Connection() wallet.Connection
	TransactOpts(ctx context.Context, label string) (*bind.TransactOpts, error)
}

type TokenMetadata struct {
	Decimals uint8
	Symbol   string
}

// StakeRecord is one entry of a user's stake array. Index is its absolute
// position in that array.
type StakeRecord struct {
	Index   uint64
	Amount  *big.Int
	LockOn  uint64
	LockEnd uint64
	Rewards *big.Int
}

// stakeInfo mirrors the tuple returned by getStakeInfoArray.
type stakeInfo struct {
	Amount  *big.Int
	LockOn  *big.Int
	LockEnd *big.Int
	Rewards *big.Int
}

type Addresses struct {
	Token    common.Address
	Staking  common.Address
	Claiming common.Address
}

func ParseAddresses(cfg *config.ContractAddresses) (*Addresses, error) {
	for name, addr := range map[string]string{"token": cfg.Token, "staking": cfg.Staking, "claiming": cfg.Claiming} {
		if !common.IsHexAddress(addr) || utils.IsNullAddress(addr) {
			return nil, fmt.Errorf("invalid %s contract address '%s'", name, addr)
		}
	}
	return &Addresses{
		Token:    common.HexToAddress(cfg.Token),
		Staking:  common.HexToAddress(cfg.Staking),
		Claiming: common.HexToAddress(cfg.Claiming),
	}, nil
}

type ContractGateway struct {
	backend   Backend
	signer    Signer
	addresses *Addresses
	logger    *zap.Logger

	token    *bind.BoundContract
	staking  *bind.BoundContract
	claiming *bind.BoundContract
}

func NewContractGateway(backend Backend, signer Signer, addresses *Addresses, l *zap.Logger) *ContractGateway {
	return &ContractGateway{
		backend:   backend,
		signer:    signer,
		addresses: addresses,
		logger:    l,
		token:     bind.NewBoundContract(addresses.Token, *contractAbi.Get(contractAbi.Role_Token), backend, backend, nil),
		staking:   bind.NewBoundContract(addresses.Staking, *contractAbi.Get(contractAbi.Role_Staking), backend, backend, nil),
		claiming:  bind.NewBoundContract(addresses.Claiming, *contractAbi.Get(contractAbi.Role_Claiming), backend, backend, nil),
	}
}

func (cg *ContractGateway) Addresses() Addresses {
	return *cg.addresses
}

func (cg *ContractGateway) callOpts(ctx context.Context) (*bind.CallOpts, error) {
	conn := cg.signer.Connection()
	if !conn.Connected {
		return nil, actionErrors.ErrNotConnected
	}
	return &bind.CallOpts{Context: ctx, From: conn.Address}, nil
}

func (cg *ContractGateway) call(ctx context.Context, contract *bind.BoundContract, method string, args ...interface{}) ([]interface{}, error) {
	opts, err := cg.callOpts(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]interface{}, 0)
	if err := contract.Call(opts, &results, method, args...); err != nil {
		cg.logger.Sugar().Debugw("Contract call failed",
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, actionErrors.Classify(method, err)
	}
	if len(results) == 0 {
		return nil, actionErrors.Classify(method, fmt.Errorf("empty result"))
	}
	return results, nil
}

func (cg *ContractGateway) transact(ctx context.Context, contract *bind.BoundContract, method string, args ...interface{}) (*types.Transaction, error) {
	opts, err := cg.signer.TransactOpts(ctx, method)
	if err != nil {
		return nil, actionErrors.Classify(method, err)
	}
	tx, err := contract.Transact(opts, method, args...)
	if err != nil {
		cg.logger.Sugar().Errorw("Failed to submit transaction",
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, actionErrors.Classify(method, err)
	}
	cg.logger.Sugar().Infow("Submitted transaction",
		zap.String("method", method),
		zap.String("txHash", tx.Hash().Hex()),
	)
	return tx, nil
}

func asBigInt(v interface{}, method string) (*big.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, v)
	}
	return b, nil
}

// Token

func (cg *ContractGateway) Decimals(ctx context.Context) (uint8, error) {
	results, err := cg.call(ctx, cg.token, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(results[0], new(uint8)).(*uint8), nil
}

func (cg *ContractGateway) Symbol(ctx context.Context) (string, error) {
	results, err := cg.call(ctx, cg.token, "symbol")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(results[0], new(string)).(*string), nil
}

func (cg *ContractGateway) TokenMetadata(ctx context.Context) (*TokenMetadata, error) {
	decimals, err := cg.Decimals(ctx)
	if err != nil {
		return nil, err
	}
	symbol, err := cg.Symbol(ctx)
	if err != nil {
		return nil, err
	}
	return &TokenMetadata{Decimals: decimals, Symbol: symbol}, nil
}

func (cg *ContractGateway) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	results, err := cg.call(ctx, cg.token, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return asBigInt(results[0], "balanceOf")
}

func (cg *ContractGateway) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return cg.transact(ctx, cg.token, "approve", spender, amount)
}

// Staking

func (cg *ContractGateway) StakingEnabled(ctx context.Context) (bool, error) {
	results, err := cg.call(ctx, cg.staking, "stakingEnabled")
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(results[0], new(bool)).(*bool), nil
}

func (cg *ContractGateway) NumStakes(ctx context.Context, user common.Address) (uint64, error) {
	results, err := cg.call(ctx, cg.staking, "numStakes", user)
	if err != nil {
		return 0, err
	}
	n, err := asBigInt(results[0], "numStakes")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (cg *ContractGateway) GetStakeInfo(ctx context.Context, user common.Address, index uint64) (*StakeRecord, error) {
	results, err := cg.call(ctx, cg.staking, "getStakeInfo", user, new(big.Int).SetUint64(index))
	if err != nil {
		return nil, err
	}
	if len(results) < 4 {
		return nil, fmt.Errorf("unexpected getStakeInfo result length %d", len(results))
	}
	values := make([]*big.Int, 4)
	for i := range values {
		if values[i], err = asBigInt(results[i], "getStakeInfo"); err != nil {
			return nil, err
		}
	}
	return &StakeRecord{
		Index:   index,
		Amount:  values[0],
		LockOn:  values[1].Uint64(),
		LockEnd: values[2].Uint64(),
		Rewards: values[3],
	}, nil
}

// GetStakeInfoArray reads the inclusive index range [from, to].
func (cg *ContractGateway) GetStakeInfoArray(ctx context.Context, user common.Address, from uint64, to uint64) ([]*StakeRecord, error) {
	results, err := cg.call(ctx, cg.staking, "getStakeInfoArray", user, new(big.Int).SetUint64(from), new(big.Int).SetUint64(to))
	if err != nil {
		return nil, err
	}
	infos := *abi.ConvertType(results[0], new([]stakeInfo)).(*[]stakeInfo)

	records := make([]*StakeRecord, 0, len(infos))
	for i, info := range infos {
		records = append(records, &StakeRecord{
			Index:   from + uint64(i),
			Amount:  info.Amount,
			LockOn:  info.LockOn.Uint64(),
			LockEnd: info.LockEnd.Uint64(),
			Rewards: info.Rewards,
		})
	}
	return records, nil
}

func (cg *ContractGateway) Stake(ctx context.Context, amount *big.Int, months uint64) (*types.Transaction, error) {
	return cg.transact(ctx, cg.staking, "stake", amount, new(big.Int).SetUint64(months))
}

func (cg *ContractGateway) Withdraw(ctx context.Context, index uint64) (*types.Transaction, error) {
	return cg.transact(ctx, cg.staking, "withdraw", new(big.Int).SetUint64(index))
}

func (cg *ContractGateway) ClaimRewards(ctx context.Context, index uint64) (*types.Transaction, error) {
	return cg.transact(ctx, cg.staking, "claimRewards", new(big.Int).SetUint64(index))
}

// Claiming

func (cg *ContractGateway) Owner(ctx context.Context) (common.Address, error) {
	results, err := cg.call(ctx, cg.claiming, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(results[0], new(common.Address)).(*common.Address), nil
}

func (cg *ContractGateway) ClaimStart(ctx context.Context) (uint64, error) {
	results, err := cg.call(ctx, cg.claiming, "claimStart")
	if err != nil {
		return 0, err
	}
	start, err := asBigInt(results[0], "claimStart")
	if err != nil {
		return 0, err
	}
	return start.Uint64(), nil
}

func (cg *ContractGateway) GetClaimableAmount(ctx context.Context, user common.Address) (*big.Int, error) {
	results, err := cg.call(ctx, cg.claiming, "getClaimableAmount", user)
	if err != nil {
		return nil, err
	}
	return asBigInt(results[0], "getClaimableAmount")
}

func (cg *ContractGateway) Claim(ctx context.Context, user common.Address, amount *big.Int) (*types.Transaction, error) {
	return cg.transact(ctx, cg.claiming, "claim", user, amount)
}

func (cg *ContractGateway) StakeFromClaim(ctx context.Context, amount *big.Int, months uint64) (*types.Transaction, error) {
	return cg.transact(ctx, cg.claiming, "stake", amount, new(big.Int).SetUint64(months))
}

func (cg *ContractGateway) SetClaimStart(ctx context.Context, epoch uint64) (*types.Transaction, error) {
	return cg.transact(ctx, cg.claiming, "setClaimStart", new(big.Int).SetUint64(epoch))
}

func (cg *ContractGateway) SetClaim(ctx context.Context, user common.Address, amount *big.Int) (*types.Transaction, error) {
	return cg.transact(ctx, cg.claiming, "setClaim", user, amount)
}

// WaitForConfirmation blocks until the transaction is included in a block,
// which is the single confirmation every action waits for.
func (cg *ContractGateway) WaitForConfirmation(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, cg.backend, tx)
	if err != nil {
		cg.logger.Sugar().Debugw("Stopped waiting for receipt",
			zap.String("txHash", tx.Hash().Hex()),
			zap.Error(err),
		)
		return nil, &actionErrors.NetworkError{Op: "waitForConfirmation", Err: err}
	}
	return receipt, nil
}
