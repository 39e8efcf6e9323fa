package presentation

import (
	"fmt"
	"math/big"
	"time"

	"github.com/claimstake/console/pkg/units"
	"github.com/claimstake/console/pkg/viewState"
)

const (
	ClaimingEnabledText  = "Claiming is enabled."
	ClaimingDisabledText = "Claiming is Disabled"
	StakingEnabledText   = "Staking is Enabled"
	StakingDisabledText  = "Staking is Disabled"
	NoDataText           = "There is no data"
	OwnerPanelTitle      = "Claiming Contract Owner Functions"
)

// StakeRow is one rendered row of the stake table. Index is the absolute
// stake index row actions are issued against.
type StakeRow struct {
	No              uint64 `json:"no" csv:"No"`
	Index           uint64 `json:"index" csv:"Index"`
	StakedAmount    string `json:"stakedAmount" csv:"Staked Amount"`
	StartTime       string `json:"startTime" csv:"Start Time"`
	Duration        string `json:"duration" csv:"Duration"`
	Remaining       string `json:"remaining" csv:"Remaining"`
	Apy             string `json:"apy" csv:"APY"`
	Reward          string `json:"reward" csv:"Reward"`
	CanWithdraw     bool   `json:"canWithdraw" csv:"Withdraw"`
	CanClaimRewards bool   `json:"canClaimRewards" csv:"Rewards"`
}

type ClaimingView struct {
	Started         bool   `json:"started"`
	StatusText      string `json:"statusText"`
	AvailableFrom   string `json:"availableFrom"`
	ClaimableAmount string `json:"claimableAmount"`
}

type StakingView struct {
	Enabled      bool        `json:"enabled"`
	StatusText   string      `json:"statusText"`
	TokenBalance string      `json:"tokenBalance"`
	Page         uint64      `json:"page"`
	Limit        uint64      `json:"limit"`
	Rows         []*StakeRow `json:"rows"`
	EmptyText    string      `json:"emptyText,omitempty"`
}

type View struct {
	Connected  bool         `json:"connected"`
	Address    string       `json:"address,omitempty"`
	ChainId    string       `json:"chainId,omitempty"`
	Symbol     string       `json:"symbol"`
	Decimals   uint8        `json:"decimals"`
	Claiming   ClaimingView `json:"claiming"`
	Staking    StakingView  `json:"staking"`
	OwnerPanel bool         `json:"ownerPanel"`
	Message    string       `json:"message,omitempty"`
	Revision   uint64       `json:"revision"`
}

func formatAmount(raw *big.Int, s viewState.ViewState) string {
	display := units.ToDisplay(raw, s.Decimals)
	if s.Symbol == "" {
		return display
	}
	return fmt.Sprintf("%s %s", display, s.Symbol)
}

// BuildStakeRows numbers rows from the page window, so row i of page p is
// stake (p-1)*limit+i.
func BuildStakeRows(s viewState.ViewState, now time.Time, loc *time.Location) []*StakeRow {
	rows := make([]*StakeRow, 0, len(s.Stakes))
	offset := uint64(0)
	if s.Window.Page > 0 {
		offset = (s.Window.Page - 1) * s.Window.Limit
	}
	for i, rec := range s.Stakes {
		months := DurationMonths(rec)
		rows = append(rows, &StakeRow{
			No:              offset + uint64(i) + 1,
			Index:           offset + uint64(i),
			StakedAmount:    formatAmount(rec.Amount, s),
			StartTime:       FormatTimestamp(rec.LockOn, loc),
			Duration:        fmt.Sprintf("%d Months", months),
			Remaining:       RemainingLockTime(rec, now),
			Apy:             fmt.Sprintf("%d %%", ApyForDuration(months)),
			Reward:          formatAmount(rec.Rewards, s),
			CanWithdraw:     rec.Amount != nil && rec.Amount.Sign() > 0,
			CanClaimRewards: rec.Rewards != nil && rec.Rewards.Sign() > 0,
		})
	}
	return rows
}

func BuildView(s viewState.ViewState, now time.Time, loc *time.Location) *View {
	started := ClaimStarted(s.Claim.ClaimStart, now)
	v := &View{
		Connected: s.Connection.Connected,
		Symbol:    s.Symbol,
		Decimals:  s.Decimals,
		Claiming: ClaimingView{
			Started:         started,
			StatusText:      ClaimingDisabledText,
			AvailableFrom:   FormatTimestamp(s.Claim.ClaimStart, loc),
			ClaimableAmount: formatAmount(s.Claim.ClaimableAmount, s),
		},
		Staking: StakingView{
			Enabled:      s.StakingEnabled,
			StatusText:   StakingDisabledText,
			TokenBalance: formatAmount(s.TokenBalance, s),
			Page:         s.Window.Page,
			Limit:        s.Window.Limit,
			Rows:         BuildStakeRows(s, now, loc),
		},
		OwnerPanel: IsOwner(s.Connection, s.Claim.Owner, s.Claim.OwnerKnown),
		Message:    s.LastMessage,
		Revision:   s.Revision,
	}
	if s.Connection.Connected {
		v.Address = s.Connection.Address.Hex()
		if s.Connection.ChainId != nil {
			v.ChainId = s.Connection.ChainId.String()
		}
	}
	if started {
		v.Claiming.StatusText = ClaimingEnabledText
	}
	if s.StakingEnabled {
		v.Staking.StatusText = StakingEnabledText
	}
	if len(v.Staking.Rows) == 0 {
		v.Staking.EmptyText = NoDataText
	}
	return v
}
