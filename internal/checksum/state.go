package checksum

import (
	"encoding"

	"github.com/pkg/errors"
)

var ErrStateUnsupported = errors.New("checksum algorithm does not support state snapshots")

// MarshalState snapshots the running state of calc without consuming it.
func MarshalState(calc Calculator) ([]byte, error) {
	hashCalc, ok := calc.(*hashCalculator)
	if !ok {
		return nil, ErrStateUnsupported
	}
	if hashCalc.finalized {
		return nil, ErrFinalized
	}
	marshaler, ok := hashCalc.hash.(encoding.BinaryMarshaler)
	if !ok {
		return nil, errors.Wrapf(ErrStateUnsupported, "algorithm %s", hashCalc.algorithm)
	}
	state, err := marshaler.MarshalBinary()
	return state, errors.Wrapf(err, "failed to snapshot %s state", hashCalc.algorithm)
}

// RestoreCalculator rebuilds a calculator from a MarshalState snapshot.
// written is carried separately since the hash state does not expose it.
func RestoreCalculator(algorithm Algorithm, state []byte, written int64) (Calculator, error) {
	calc, err := NewCalculator(algorithm)
	if err != nil {
		return nil, err
	}
	hashCalc := calc.(*hashCalculator)
	unmarshaler, ok := hashCalc.hash.(encoding.BinaryUnmarshaler)
	if !ok {
		return nil, errors.Wrapf(ErrStateUnsupported, "algorithm %s", algorithm)
	}
	if err = unmarshaler.UnmarshalBinary(state); err != nil {
		return nil, errors.Wrapf(err, "failed to restore %s state", algorithm)
	}
	hashCalc.written = written
	return hashCalc, nil
}
