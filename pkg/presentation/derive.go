// Package presentation turns view-state snapshots into what the user sees.
// Everything here is pure: time and location are always passed in.
package presentation

import (
	"fmt"
	"math"
	"time"

	"github.com/claimstake/console/pkg/contractGateway"
	"github.com/claimstake/console/pkg/utils"
	"github.com/claimstake/console/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
)

const (
	secondsPerDay   = 86400
	secondsPerHour  = 3600
	secondsPerMonth = 30 * secondsPerDay

	NotDefinedYet = "Not defined yet"
	LockEnded     = "End"

	TimestampLayout = "02/01/2006 15:04:05"
)

var apyByMonths = map[uint64]uint64{
	3:  10,
	6:  25,
	9:  35,
	12: 50,
}

// ClaimStarted is false while the claim start is unset.
func ClaimStarted(claimStart uint64, now time.Time) bool {
	if claimStart == 0 {
		return false
	}
	return now.Unix() >= int64(claimStart)
}

func RemainingLockSeconds(rec *contractGateway.StakeRecord, now time.Time) uint64 {
	nowUnix := now.Unix()
	if nowUnix < 0 || uint64(nowUnix) >= rec.LockEnd {
		return 0
	}
	return rec.LockEnd - uint64(nowUnix)
}

// RemainingLockTime renders the time left on a lock as whole days and
// hours, or "End" once the lock has expired.
func RemainingLockTime(rec *contractGateway.StakeRecord, now time.Time) string {
	remain := RemainingLockSeconds(rec, now)
	if remain == 0 {
		return LockEnded
	}
	days := remain / secondsPerDay
	hours := (remain - days*secondsPerDay) / secondsPerHour
	if days > 0 {
		return fmt.Sprintf("%d days %d hours", days, hours)
	}
	return fmt.Sprintf("%d hours", hours)
}

// DurationMonths rounds the lock length to 30-day months.
func DurationMonths(rec *contractGateway.StakeRecord) uint64 {
	if rec.LockEnd <= rec.LockOn {
		return 0
	}
	return uint64(math.Round(float64(rec.LockEnd-rec.LockOn) / secondsPerMonth))
}

func ApyForDuration(months uint64) uint64 {
	return apyByMonths[months]
}

func FormatTimestamp(epoch uint64, loc *time.Location) string {
	if epoch == 0 {
		return NotDefinedYet
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(int64(epoch), 0).In(loc).Format(TimestampLayout)
}

// IsOwner gates the owner panel. It is false while disconnected or before
// the owner has been read.
func IsOwner(conn wallet.Connection, owner common.Address, ownerKnown bool) bool {
	if !conn.Connected || !ownerKnown || utils.IsNullAddress(owner.Hex()) {
		return false
	}
	return utils.AreAddressesEqual(conn.Address.Hex(), owner.Hex())
}
