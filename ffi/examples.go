package ffi

import (
	"github.com/plus3/mmoss/examples/squares"
	"github.com/plus3/mmoss/logging"
)

// RegisterSquareClient adds the square mob to a mob factory builder
func RegisterSquareClient(builder Handle) {
	defer recoverPanic("RegisterSquareClient")

	b, ok := mobBuilders.Get(builder)
	if !ok {
		logging.Default().Error("invalid mob factory builder handle", "handle", builder)
		return
	}
	if err := squares.RegisterClient(b); err != nil {
		logging.Default().Error("failed to register square mob", "error", err)
	}
}

// RegisterFactoryComponents adds the square render component to a component
// factory builder
func RegisterFactoryComponents(builder Handle) {
	defer recoverPanic("RegisterFactoryComponents")

	b, ok := componentBuilders.Get(builder)
	if !ok {
		logging.Default().Error("invalid component factory builder handle", "handle", builder)
		return
	}
	if err := squares.RegisterFactoryComponents(b); err != nil {
		logging.Default().Error("failed to register square components", "error", err)
	}
}
