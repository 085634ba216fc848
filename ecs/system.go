package ecs

// System is run by a Scheduler once per tick. Exported Query fields are
// bound to the scheduler's storage when the system is registered.
type System interface {
	Execute(frame *UpdateFrame)
}

// Named systems report under Name in scheduler stats instead of their type
// name
type Named interface {
	Name() string
}
