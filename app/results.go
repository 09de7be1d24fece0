package app

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// DeliverOrError returns an abci response for DeliverTx, converting the
// error if present, or using the successful DeliverResult.
func DeliverOrError(result *escrowd.DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		code, log := errors.ABCIInfo(err, debug)
		return abci.ResponseDeliverTx{Code: code, Log: log}
	}
	return abci.ResponseDeliverTx{
		Data: result.Data,
		Log:  result.Log,
		Tags: toKVPairs(result.Tags),
	}
}

// CheckOrError returns an abci response for CheckTx, converting the error
// if present, or using the successful CheckResult.
func CheckOrError(result *escrowd.CheckResult, err error, debug bool) abci.ResponseCheckTx {
	if err != nil {
		code, log := errors.ABCIInfo(err, debug)
		return abci.ResponseCheckTx{Code: code, Log: log}
	}
	return abci.ResponseCheckTx{
		Data:      result.Data,
		Log:       result.Log,
		GasWanted: result.GasAllocated,
	}
}

// ParseDeliverOrError is the inverse of DeliverOrError. A failed response
// is turned back into an error carrying the same ABCI code.
func ParseDeliverOrError(res abci.ResponseDeliverTx) (*escrowd.DeliverResult, error) {
	if res.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(res.Code, res.Log)
	}
	tags := make([]escrowd.Tag, len(res.Tags))
	for i, t := range res.Tags {
		tags[i] = escrowd.Tag{Key: t.Key, Value: t.Value}
	}
	return &escrowd.DeliverResult{Data: res.Data, Log: res.Log, Tags: tags}, nil
}

func toKVPairs(tags []escrowd.Tag) []common.KVPair {
	if len(tags) == 0 {
		return nil
	}
	pairs := make([]common.KVPair, len(tags))
	for i, t := range tags {
		pairs[i] = common.KVPair{Key: t.Key, Value: t.Value}
	}
	return pairs
}
