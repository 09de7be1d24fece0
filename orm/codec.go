package orm

import (
	"github.com/iov-one/escrowd/errors"
	amino "github.com/tendermint/go-amino"
)

// Codec is the binary codec used by all models that are persisted by the
// orm. Only registered concrete types can be stored in interface fields.
var Codec = amino.NewCodec()

// Marshal serializes given model using the Codec.
func Marshal(m interface{}) ([]byte, error) {
	raw, err := Codec.MarshalBinaryBare(m)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "cannot marshal %T: %s", m, err)
	}
	return raw, nil
}

// Unmarshal deserializes raw into given destination.
func Unmarshal(raw []byte, dest interface{}) error {
	if err := Codec.UnmarshalBinaryBare(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrInvalidModel, "cannot unmarshal %T: %s", dest, err)
	}
	return nil
}
