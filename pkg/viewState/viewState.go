// Package viewState holds the snapshot every render is produced from.
// Snapshots are never mutated; each change is a named Transition producing
// a new one.
package viewState

import (
	"math/big"
	"sync"

	"github.com/claimstake/console/pkg/contractGateway"
	"github.com/claimstake/console/pkg/paginator"
	"github.com/claimstake/console/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type ClaimInfo struct {
	Owner      common.Address
	OwnerKnown bool

	// ClaimStart of 0 means the claim window has not been configured.
	ClaimStart      uint64
	ClaimableAmount *big.Int
}

type ViewState struct {
	Connection wallet.Connection

	TokenKnown bool
	Decimals   uint8
	Symbol     string

	StakingEnabled bool
	Claim          ClaimInfo
	TokenBalance   *big.Int

	Window paginator.PageWindow
	Stakes []*contractGateway.StakeRecord

	LastMessage string

	// Revision increments with every applied transition.
	Revision uint64
}

func Initial() ViewState {
	return ViewState{
		Connection:   wallet.Disconnected(),
		Claim:        ClaimInfo{ClaimableAmount: big.NewInt(0)},
		TokenBalance: big.NewInt(0),
		Window:       paginator.DefaultWindow(),
		Stakes:       []*contractGateway.StakeRecord{},
	}
}

type Transition struct {
	Name  string
	Apply func(ViewState) ViewState
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// ConnectionChanged resets everything derived from the previous identity
// and moves the stake list back to page 1.
func ConnectionChanged(conn wallet.Connection) Transition {
	return Transition{
		Name: "connectionChanged",
		Apply: func(s ViewState) ViewState {
			next := Initial()
			next.Connection = conn
			next.Window = paginator.PageWindow{Page: paginator.DefaultPage, Limit: s.Window.Limit}
			if next.Window.Limit == 0 {
				next.Window.Limit = paginator.DefaultLimit
			}
			return next
		},
	}
}

func TokenMetadataLoaded(md contractGateway.TokenMetadata) Transition {
	return Transition{
		Name: "tokenMetadataLoaded",
		Apply: func(s ViewState) ViewState {
			s.TokenKnown = true
			s.Decimals = md.Decimals
			s.Symbol = md.Symbol
			return s
		},
	}
}

func StakingEnabledLoaded(enabled bool) Transition {
	return Transition{
		Name: "stakingEnabledLoaded",
		Apply: func(s ViewState) ViewState {
			s.StakingEnabled = enabled
			return s
		},
	}
}

func ClaimStartLoaded(start uint64) Transition {
	return Transition{
		Name: "claimStartLoaded",
		Apply: func(s ViewState) ViewState {
			s.Claim.ClaimStart = start
			return s
		},
	}
}

func OwnerLoaded(owner common.Address) Transition {
	return Transition{
		Name: "ownerLoaded",
		Apply: func(s ViewState) ViewState {
			s.Claim.Owner = owner
			s.Claim.OwnerKnown = true
			return s
		},
	}
}

func ClaimableAmountLoaded(amount *big.Int) Transition {
	amount = copyBig(amount)
	return Transition{
		Name: "claimableAmountLoaded",
		Apply: func(s ViewState) ViewState {
			s.Claim.ClaimableAmount = amount
			return s
		},
	}
}

func TokenBalanceLoaded(balance *big.Int) Transition {
	balance = copyBig(balance)
	return Transition{
		Name: "tokenBalanceLoaded",
		Apply: func(s ViewState) ViewState {
			s.TokenBalance = balance
			return s
		},
	}
}

func WindowChanged(window paginator.PageWindow) Transition {
	return Transition{
		Name: "windowChanged",
		Apply: func(s ViewState) ViewState {
			s.Window = window
			return s
		},
	}
}

// StakePageLoaded replaces the visible slice. The records are copied so a
// later page cannot alias an earlier snapshot.
func StakePageLoaded(window paginator.PageWindow, records []*contractGateway.StakeRecord) Transition {
	page := make([]*contractGateway.StakeRecord, 0, len(records))
	for _, r := range records {
		c := *r
		c.Amount = copyBig(r.Amount)
		c.Rewards = copyBig(r.Rewards)
		page = append(page, &c)
	}
	return Transition{
		Name: "stakePageLoaded",
		Apply: func(s ViewState) ViewState {
			s.Window = window
			s.Stakes = page
			return s
		},
	}
}

func MessageSet(message string) Transition {
	return Transition{
		Name: "messageSet",
		Apply: func(s ViewState) ViewState {
			s.LastMessage = message
			return s
		},
	}
}

// Store serialises transitions and hands out snapshots.
type Store struct {
	logger *zap.Logger

	mu      sync.RWMutex
	current ViewState
	applied map[string]int
}

func NewStore(l *zap.Logger) *Store {
	return &Store{
		logger:  l,
		current: Initial(),
		applied: map[string]int{},
	}
}

func (s *Store) Apply(t Transition) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := t.Apply(s.current)
	next.Revision = s.current.Revision + 1
	s.current = next
	s.applied[t.Name]++

	s.logger.Sugar().Debugw("Applied view transition",
		zap.String("transition", t.Name),
		zap.Uint64("revision", next.Revision),
	)
	return next
}

func (s *Store) Snapshot() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// AppliedCount reports how many times a named transition has been applied.
func (s *Store) AppliedCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied[name]
}
