// Package ffi is the Go side of the mmoss C library. Every function takes and
// returns plain handles and values so cmd/libmmoss only converts C types.
// Invalid handles are logged and ignored; panics never escape.
package ffi

import (
	"context"
	"log/slog"

	"github.com/plus3/mmoss/client"
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/internal/handles"
	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/physics"
	"github.com/plus3/mmoss/replication"
	rclient "github.com/plus3/mmoss/replication/client"
)

type Handle = handles.Handle

// Null is the handle returned on failure
const Null Handle = 0

type worldEntry struct {
	world *client.World
	// failed is set after the first disconnect has been logged
	failed bool
}

var (
	mobBuilders        = handles.New[*rclient.MobFactoryBuilder]()
	mobFactories       = handles.New[*rclient.MobFactory]()
	componentBuilders  = handles.New[*rclient.ComponentFactoryBuilder]()
	componentFactories = handles.New[*rclient.ComponentFactory]()
	worlds             = handles.New[*worldEntry]()
)

func recoverPanic(op string) {
	if r := recover(); r != nil {
		logging.Default().Error("panic in "+op, "panic", r)
	}
}

// InitLog routes library logs to callback. Levels 1 to 5 select error, warn,
// info, debug and trace; anything else selects info. A nil callback discards
// all logs.
func InitLog(level int, callback func(level int, message string)) {
	defer recoverPanic("InitLog")

	if callback == nil {
		logging.SetDefault(logging.Nop{})
		return
	}
	lvl, ok := logging.LevelFromInt(level)
	handler := logging.NewCallbackHandler(lvl, func(l slog.Level, message string) {
		callback(logging.LevelToInt(l), message)
	})
	logging.SetDefault(logging.NewSlog(slog.New(handler)))
	if !ok {
		logging.Default().Warn("invalid log level, defaulting to info", "level", level)
	}
}

func MobFactoryBuilderNew() Handle {
	return mobBuilders.Insert(rclient.NewMobFactoryBuilder())
}

// MobFactoryBuilderBuild consumes the builder handle
func MobFactoryBuilderBuild(builder Handle) Handle {
	defer recoverPanic("MobFactoryBuilderBuild")

	b, ok := mobBuilders.Remove(builder)
	if !ok {
		logging.Default().Error("invalid mob factory builder handle", "handle", builder)
		return Null
	}
	f, err := b.Build()
	if err != nil {
		logging.Default().Error("failed to build mob factory", "error", err)
		return Null
	}
	return mobFactories.Insert(f)
}

// ComponentFactoryBuilderNew returns a builder that already holds the default
// actor proxy components
func ComponentFactoryBuilderNew() Handle {
	defer recoverPanic("ComponentFactoryBuilderNew")

	b := rclient.NewComponentFactoryBuilder()
	if err := rclient.RegisterDefaultComponents(b); err != nil {
		logging.Default().Error("failed to register default components", "error", err)
		return Null
	}
	return componentBuilders.Insert(b)
}

func ComponentFactoryBuilderBuild(builder Handle) Handle {
	defer recoverPanic("ComponentFactoryBuilderBuild")

	b, ok := componentBuilders.Remove(builder)
	if !ok {
		logging.Default().Error("invalid component factory builder handle", "handle", builder)
		return Null
	}
	f, err := b.Build()
	if err != nil {
		logging.Default().Error("failed to build component factory", "error", err)
		return Null
	}
	return componentFactories.Insert(f)
}

// WorldNew connects a world to address. A Null component factory selects the
// default components. Factories stay valid and may be shared between worlds.
func WorldNew(mobs, components Handle, address string) Handle {
	defer recoverPanic("WorldNew")

	var logger logging.Logger = logging.Global{}
	mobFactory, ok := mobFactories.Get(mobs)
	if !ok {
		logger.Error("invalid mob factory handle", "handle", mobs)
		return Null
	}
	var componentFactory *rclient.ComponentFactory
	if components != Null {
		if componentFactory, ok = componentFactories.Get(components); !ok {
			logger.Error("invalid component factory handle", "handle", components)
			return Null
		}
	}

	w, err := client.New(context.Background(), mobFactory, componentFactory, address, client.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create world", "address", address, "error", err)
		return Null
	}
	return worlds.Insert(&worldEntry{world: w})
}

// WorldDestroy closes the world. Destroying a handle twice does nothing.
func WorldDestroy(world Handle) {
	defer recoverPanic("WorldDestroy")

	entry, ok := worlds.Remove(world)
	if !ok {
		logging.Default().Debug("ignoring destroy of unknown world", "handle", world)
		return
	}
	if err := entry.world.Close(); err != nil {
		logging.Default().Warn("error closing world", "error", err)
	}
}

// UpdateCallbacks mirror the C callback signatures. Nil callbacks are skipped.
type UpdateCallbacks struct {
	OnSpawn            func(entity uint64, mobType uint32)
	OnComponentUpdated func(entity uint64, id uint32)
	OnComponentAdded   func(entity uint64, spawnId, componentType, id uint32)
}

func (cb UpdateCallbacks) funcs() client.CallbackFuncs {
	var funcs client.CallbackFuncs
	if cb.OnSpawn != nil {
		funcs.Spawn = func(entity ecs.Entity, _ replication.SpawnId, mobType replication.MobType) {
			cb.OnSpawn(uint64(entity), uint32(mobType))
		}
	}
	if cb.OnComponentUpdated != nil {
		funcs.ComponentUpdated = func(entity ecs.Entity, _ replication.SpawnId, id replication.Id) {
			cb.OnComponentUpdated(uint64(entity), uint32(id))
		}
	}
	if cb.OnComponentAdded != nil {
		funcs.ComponentAdded = func(entity ecs.Entity, spawnId replication.SpawnId, componentType replication.ComponentType, id replication.Id) {
			cb.OnComponentAdded(uint64(entity), uint32(spawnId), uint32(componentType), uint32(id))
		}
	}
	return funcs
}

// WorldUpdate applies pending replication and invokes the callbacks on the
// calling thread. A lost connection is logged once.
func WorldUpdate(world Handle, callbacks UpdateCallbacks) {
	defer recoverPanic("WorldUpdate")

	entry, ok := worlds.Get(world)
	if !ok {
		logging.Default().Error("invalid world handle", "handle", world)
		return
	}
	if err := entry.world.Update(callbacks.funcs()); err != nil && !entry.failed {
		entry.failed = true
		logging.Default().Error("world update failed", "error", err)
	}
}

// DynamicActorProxyGetTransform always writes both outputs. When the entity
// has no transform they receive the origin and the identity rotation.
func DynamicActorProxyGetTransform(world Handle, entity uint64, translation *physics.Vec3, rotation *physics.Quat) {
	transform := physics.IdentityTransform()
	defer func() {
		if translation != nil {
			*translation = transform.Translation
		}
		if rotation != nil {
			*rotation = transform.Rotation
		}
	}()
	defer recoverPanic("DynamicActorProxyGetTransform")

	entry, ok := worlds.Get(world)
	if !ok {
		logging.Default().Error("invalid world handle", "handle", world)
		return
	}
	t, err := entry.world.Transform(ecs.Entity(entity))
	if err != nil {
		logging.Default().Error("failed to read transform", "entity", entity, "error", err)
		return
	}
	transform = t
}
