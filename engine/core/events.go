package core

import "sync"

// EventContext carries the state of the asset an event is about.
type EventContext struct {
	// Catalog is the name of the catalog that owns the asset, if any.
	Catalog string
	// Name of the asset inside its catalog.
	Name string
	// Path of the file backing the asset.
	Path string
	// Succeeded reports the outcome of the last load attempt.
	Succeeded bool
	// Generation of the payload at the time the event fired.
	Generation uint32
	// Err is the error of the last load attempt, nil on success.
	Err error
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// An asset finished loading successfully.
	EVENT_CODE_ASSET_LOADED SystemEventCode = 0x01

	// An asset load attempt completed with an error.
	EVENT_CODE_ASSET_FAILED SystemEventCode = 0x02

	// A watched asset file changed on disk and a reload was scheduled.
	/* Context usage:
	 * Path holds the file that changed, Name is empty.
	 */
	EVENT_CODE_ASSET_CHANGED SystemEventCode = 0x03

	// A watched asset file was removed or renamed.
	EVENT_CODE_ASSET_REMOVED SystemEventCode = 0x04

	// A manifest was registered in a catalog.
	/* Context usage:
	 * Path holds the manifest path, Catalog the catalog name.
	 */
	EVENT_CODE_MANIFEST_REGISTERED SystemEventCode = 0x05

	// Every registered asset has been reported at least once.
	EVENT_CODE_ALL_ASSETS_REPORTED SystemEventCode = 0x06

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventBus dispatches asset lifecycle events to registered listeners.
// It is safe for concurrent use.
type EventBus struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listener/callback combos will not be registered again and will cause this to return FALSE.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance. Can be nil.
 * @param onEvent The callback function to be invoked when the event code is fired.
 * @returns TRUE if the event is successfully registered; otherwise false.
 */
func (b *EventBus) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if onEvent == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range b.registered[code] {
		if e.listener == listener {
			return false
		}
	}
	b.registered[code] = append(b.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns FALSE.
 */
func (b *EventBus) Unregister(code SystemEventCode, listener interface{}) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.registered[code]
	for i, e := range events {
		if e.listener == listener {
			b.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * TRUE, the event is considered handled and is not passed on to any more listeners.
 * Callbacks run on the caller's goroutine without the bus lock held.
 */
func (b *EventBus) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	b.mu.RLock()
	events := make([]*registeredEvent, len(b.registered[code]))
	copy(events, b.registered[code])
	b.mu.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (b *EventBus) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registered = make(map[SystemEventCode][]*registeredEvent)
	return nil
}
