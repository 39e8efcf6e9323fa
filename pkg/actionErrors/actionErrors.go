// Package actionErrors is the error taxonomy shared by the contract gateway
// and the transaction orchestrator.
package actionErrors

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const GenericFailureMessage = "Transaction failed"

var (
	ErrNotConnected          = errors.New("Connect the wallet please")
	ErrUserRejectedSignature = errors.New("user rejected the signature request")
)

// InvalidInputError is returned before anything is submitted.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

func NewInvalidInput(field string, message string) *InvalidInputError {
	return &InvalidInputError{Field: field, Message: message}
}

// RevertError carries the contract's revert reason, which may be empty.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return fmt.Sprintf("execution reverted: %s", e.Reason)
}

type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

var executionRevertedRegex = regexp.MustCompile(`execution reverted(?::\s*(.*))?`)

func isExecutionRevertedError(err error) bool {
	return executionRevertedRegex.MatchString(err.Error())
}

var rejectionMarkers = []string{
	"user denied",
	"user rejected",
	"rejected by user",
}

// Classify maps an error returned by the node or signer onto the taxonomy.
// Errors that already belong to it are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var invalid *InvalidInputError
	var revert *RevertError
	var network *NetworkError
	if errors.Is(err, ErrNotConnected) || errors.Is(err, ErrUserRejectedSignature) ||
		errors.As(err, &invalid) || errors.As(err, &revert) || errors.As(err, &network) {
		return err
	}

	lowered := strings.ToLower(err.Error())
	for _, marker := range rejectionMarkers {
		if strings.Contains(lowered, marker) {
			return fmt.Errorf("%w: %v", ErrUserRejectedSignature, err)
		}
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason, ok := decodeRevertData(dataErr.ErrorData()); ok {
			return &RevertError{Reason: reason}
		}
	}

	if isExecutionRevertedError(err) {
		matches := executionRevertedRegex.FindStringSubmatch(err.Error())
		reason := ""
		if len(matches) > 1 {
			reason = strings.TrimSpace(matches[1])
		}
		return &RevertError{Reason: reason}
	}

	return &NetworkError{Op: op, Err: err}
}

func decodeRevertData(data interface{}) (string, bool) {
	var raw []byte
	switch v := data.(type) {
	case string:
		decoded, err := hexutil.Decode(v)
		if err != nil {
			return "", false
		}
		raw = decoded
	case []byte:
		raw = v
	default:
		return "", false
	}
	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		return "", false
	}
	return reason, true
}

// DisplayMessage reduces an action error to the string shown to the user,
// preferring the revert reason.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotConnected) {
		return ErrNotConnected.Error()
	}
	if errors.Is(err, ErrUserRejectedSignature) {
		return "Signature request was rejected"
	}

	var invalid *InvalidInputError
	if errors.As(err, &invalid) {
		return invalid.Message
	}

	var revert *RevertError
	if errors.As(err, &revert) {
		if revert.Reason != "" {
			return revert.Reason
		}
		return GenericFailureMessage
	}
	return GenericFailureMessage
}
