package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
)

const revertPrefix = "execution reverted"

func newRevert(reason string) error {
	return domain.NewRevert(reason)
}

// decodeRevert separates contract reverts from transport failures.
// Reverts come back as *domain.RevertError carrying the decoded reason.
func decodeRevert(err error) error {
	if err == nil {
		return nil
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason, ok := reasonFromData(dataErr.ErrorData()); ok {
			return newRevert(reason)
		}
	}

	msg := err.Error()
	if idx := strings.Index(msg, revertPrefix); idx >= 0 {
		reason := strings.TrimPrefix(msg[idx+len(revertPrefix):], ":")
		return newRevert(strings.TrimSpace(reason))
	}
	return err
}

func reasonFromData(data interface{}) (string, bool) {
	s, ok := data.(string)
	if !ok {
		return "", false
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return "", false
	}
	if len(raw) == 0 {
		return "", true
	}
	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		// custom errors and panics carry no readable reason
		return "", true
	}
	return reason, true
}
