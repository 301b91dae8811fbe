package netsim

import "errors"

var (
	// ErrInvalidDescription indicates a model description that cannot be turned
	// into a layer sequence.
	ErrInvalidDescription = errors.New("netsim: invalid model description")

	// ErrUnknownLayerType indicates a layer type name that does not map to a LayerType.
	ErrUnknownLayerType = errors.New("netsim: unknown layer type")
)
