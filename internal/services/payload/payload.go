// Package payload encodes and decodes exec call data for the cycle store contract.
package payload

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/contracts"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
)

const execMethod = "exec"

// Call is a decoded exec invocation.
type Call struct {
	Order  domain.Order
	TaskID domain.TaskID
	Venue  domain.Venue
	Fee    domain.Fee
	Path   []common.Address
}

// Draft encodes exec with the placeholder fee.
func Draft(order domain.Order, id domain.TaskID, route domain.Route, isOutTokenFee bool) (domain.DraftPayload, error) {
	data, err := encode(order, id, route, domain.PlaceholderFee(isOutTokenFee))
	if err != nil {
		return nil, err
	}
	return domain.DraftPayload(data), nil
}

// Final encodes exec with the real fee.
func Final(order domain.Order, id domain.TaskID, route domain.Route, fee domain.Fee) (domain.FinalPayload, error) {
	if fee.Amount == nil {
		return nil, errors.New("final payload requires a fee amount")
	}
	data, err := encode(order, id, route, fee)
	if err != nil {
		return nil, err
	}
	return domain.FinalPayload(data), nil
}

func encode(order domain.Order, id domain.TaskID, route domain.Route, fee domain.Fee) ([]byte, error) {
	data, err := contracts.DCA.Pack(execMethod,
		contracts.FromOrder(order),
		id.BigInt(),
		route.Venue.Code(),
		contracts.FromFee(fee),
		route.Venue.EncodePath(route.Path),
	)
	if err != nil {
		return nil, errors.Wrap(err, "pack exec payload")
	}
	return data, nil
}

// Decode parses exec call data.
func Decode(data []byte) (Call, error) {
	method := contracts.DCA.Methods[execMethod]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return Call{}, errors.New("payload is not an exec call")
	}

	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return Call{}, errors.Wrap(err, "unpack exec payload")
	}
	if len(values) != 5 {
		return Call{}, errors.Errorf("unexpected exec argument count %d", len(values))
	}

	order := *abi.ConvertType(values[0], new(contracts.ExecOrder)).(*contracts.ExecOrder)
	id, ok := values[1].(*big.Int)
	if !ok {
		return Call{}, errors.New("exec id is not uint256")
	}
	code, ok := values[2].(uint8)
	if !ok {
		return Call{}, errors.New("exec protocol is not uint8")
	}
	venue, err := domain.ParseVenue(code)
	if err != nil {
		return Call{}, err
	}
	fee := *abi.ConvertType(values[3], new(contracts.Fee)).(*contracts.Fee)
	path, ok := values[4].([]common.Address)
	if !ok {
		return Call{}, errors.New("exec trade path is not address[]")
	}

	decoded, err := order.ToOrder()
	if err != nil {
		return Call{}, err
	}
	taskID, err := domain.TaskIDFromBig(id)
	if err != nil {
		return Call{}, err
	}

	return Call{
		Order:  decoded,
		TaskID: taskID,
		Venue:  venue,
		Fee:    fee.ToFee(),
		Path:   path,
	}, nil
}
