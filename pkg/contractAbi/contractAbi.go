// Package contractAbi holds the fixed ABI fragments of the token, staking
// and claiming contracts.
package contractAbi

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const TokenAbi = `[
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const StakingAbi = `[
	{"type":"function","name":"stakingEnabled","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"numStakes","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getStakeInfo","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"index","type":"uint256"}],"outputs":[
		{"name":"amount","type":"uint256"},
		{"name":"lockOn","type":"uint256"},
		{"name":"lockEnd","type":"uint256"},
		{"name":"rewards","type":"uint256"}
	]},
	{"type":"function","name":"getStakeInfoArray","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"from","type":"uint256"},{"name":"to","type":"uint256"}],"outputs":[
		{"name":"","type":"tuple[]","components":[
			{"name":"amount","type":"uint256"},
			{"name":"lockOn","type":"uint256"},
			{"name":"lockEnd","type":"uint256"},
			{"name":"rewards","type":"uint256"}
		]}
	]},
	{"type":"function","name":"stake","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"durationInMonths","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"index","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"claimRewards","stateMutability":"nonpayable","inputs":[{"name":"index","type":"uint256"}],"outputs":[]}
]`

const ClaimingAbi = `[
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"claimStart","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getClaimableAmount","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"claim","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"stake","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"durationInMonths","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"setClaimStart","stateMutability":"nonpayable","inputs":[{"name":"claimStart","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"setClaim","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

type ContractRole string

const (
	Role_Token    ContractRole = "token"
	Role_Staking  ContractRole = "staking"
	Role_Claiming ContractRole = "claiming"
)

var (
	parsed     = map[ContractRole]*abi.ABI{}
	parsedLock sync.Mutex

	sources = map[ContractRole]string{
		Role_Token:    TokenAbi,
		Role_Staking:  StakingAbi,
		Role_Claiming: ClaimingAbi,
	}
)

// Get returns the parsed ABI for a role. The JSON above is fixed, so a parse
// failure is a programming error.
func Get(role ContractRole) *abi.ABI {
	parsedLock.Lock()
	defer parsedLock.Unlock()

	if a, ok := parsed[role]; ok {
		return a
	}
	a, err := abi.JSON(strings.NewReader(sources[role]))
	if err != nil {
		panic(err)
	}
	parsed[role] = &a
	return &a
}
