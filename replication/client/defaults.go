package client

import (
	"github.com/plus3/mmoss/physics"
)

// RegisterDefaultComponents registers the actor proxies every client needs
func RegisterDefaultComponents(b *ComponentFactoryBuilder) error {
	if err := b.Register(physics.DynamicActorProxyType, NewReplicatedEntry(physics.NewDynamicActorProxy)); err != nil {
		return err
	}
	return b.Register(physics.StaticActorProxyType, NewReplicatedEntry(physics.NewStaticActorProxy))
}

// DefaultComponentFactory builds a factory holding only the default components
func DefaultComponentFactory() *ComponentFactory {
	b := NewComponentFactoryBuilder()
	_ = RegisterDefaultComponents(b)
	f, _ := b.Build()
	return f
}
