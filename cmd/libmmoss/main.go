// Command libmmoss builds the mmoss C library:
//
//	go build -buildmode=c-shared -o libmmoss.so ./cmd/libmmoss
//
// mmoss.h declares the exported functions.
package main

/*
#include <stdlib.h>
#include "bridge.h"
*/
import "C"

import (
	"unsafe"

	"github.com/plus3/mmoss/ffi"
	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/physics"
)

func main() {}

func handle(ptr unsafe.Pointer) ffi.Handle {
	return ffi.Handle(C.mmoss_ptr_to_handle(ptr))
}

func pointer(h ffi.Handle) unsafe.Pointer {
	return C.mmoss_handle_to_ptr(C.uintptr_t(h))
}

//export mmoss_init_log
func mmoss_init_log(level C.uint8_t, logCallback C.mmoss_log_callback) {
	if logCallback == nil {
		ffi.InitLog(int(level), nil)
		return
	}
	ffi.InitLog(int(level), func(level int, message string) {
		cmsg := C.CString(message)
		defer C.free(unsafe.Pointer(cmsg))
		C.mmoss_call_log(logCallback, C.uint8_t(level), cmsg)
	})
}

//export mmoss_client_factory_builder_new
func mmoss_client_factory_builder_new() *C.MobFactoryBuilder {
	return (*C.MobFactoryBuilder)(pointer(ffi.MobFactoryBuilderNew()))
}

//export mmoss_client_factory_builder_build
func mmoss_client_factory_builder_build(builder *C.MobFactoryBuilder) *C.MobFactory {
	return (*C.MobFactory)(pointer(ffi.MobFactoryBuilderBuild(handle(unsafe.Pointer(builder)))))
}

//export mmoss_client_component_factory_builder_new
func mmoss_client_component_factory_builder_new() *C.ComponentFactoryBuilder {
	return (*C.ComponentFactoryBuilder)(pointer(ffi.ComponentFactoryBuilderNew()))
}

//export mmoss_client_component_factory_builder_build
func mmoss_client_component_factory_builder_build(builder *C.ComponentFactoryBuilder) *C.ComponentFactory {
	return (*C.ComponentFactory)(pointer(ffi.ComponentFactoryBuilderBuild(handle(unsafe.Pointer(builder)))))
}

//export mmoss_client_world_new
func mmoss_client_world_new(mobFactory *C.MobFactory, componentFactory *C.ComponentFactory, address *C.char) *C.World {
	if address == nil {
		logging.Default().Error("null address passed to world new")
		return nil
	}
	w := ffi.WorldNew(handle(unsafe.Pointer(mobFactory)), handle(unsafe.Pointer(componentFactory)), C.GoString(address))
	return (*C.World)(pointer(w))
}

//export mmoss_client_world_destroy
func mmoss_client_world_destroy(world *C.World) {
	ffi.WorldDestroy(handle(unsafe.Pointer(world)))
}

//export mmoss_client_world_update
func mmoss_client_world_update(world *C.World, onSpawn C.mmoss_on_spawn, onComponentUpdated C.mmoss_on_component_updated, onComponentAdded C.mmoss_on_component_added) {
	var callbacks ffi.UpdateCallbacks
	if onSpawn != nil {
		callbacks.OnSpawn = func(entity uint64, mobType uint32) {
			C.mmoss_call_on_spawn(onSpawn, C.uint64_t(entity), C.uint32_t(mobType))
		}
	}
	if onComponentUpdated != nil {
		callbacks.OnComponentUpdated = func(entity uint64, id uint32) {
			C.mmoss_call_on_component_updated(onComponentUpdated, C.uint64_t(entity), C.uint32_t(id))
		}
	}
	if onComponentAdded != nil {
		callbacks.OnComponentAdded = func(entity uint64, spawnId, componentType, id uint32) {
			C.mmoss_call_on_component_added(onComponentAdded, C.uint64_t(entity), C.uint32_t(spawnId), C.uint32_t(componentType), C.uint32_t(id))
		}
	}
	ffi.WorldUpdate(handle(unsafe.Pointer(world)), callbacks)
}

//export mmoss_dynamic_actor_proxy_get_tranform
func mmoss_dynamic_actor_proxy_get_tranform(world *C.World, entity C.uint64_t, translation *C.Vec3, rotation *C.Quat) {
	var t physics.Vec3
	var r physics.Quat
	ffi.DynamicActorProxyGetTransform(handle(unsafe.Pointer(world)), uint64(entity), &t, &r)
	if translation != nil {
		translation.x, translation.y, translation.z = C.float(t.X), C.float(t.Y), C.float(t.Z)
	}
	if rotation != nil {
		rotation.x, rotation.y, rotation.z, rotation.w = C.float(r.X), C.float(r.Y), C.float(r.Z), C.float(r.W)
	}
}

//export mmoss_examples_lib_register_square_client
func mmoss_examples_lib_register_square_client(builder *C.MobFactoryBuilder) {
	ffi.RegisterSquareClient(handle(unsafe.Pointer(builder)))
}

//export mmoss_examples_lib_register_factory_components
func mmoss_examples_lib_register_factory_components(builder *C.ComponentFactoryBuilder) {
	ffi.RegisterFactoryComponents(handle(unsafe.Pointer(builder)))
}
