package engine

// Game is the application driven by the engine. Every hook is optional.
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnShutdown        Shutdown
}

// Initialize runs after every manifest is registered and before any
// asset starts loading, so event listeners see every load.
type Initialize func(e *Engine) error

// Update runs once per tick after the catalogs were polled.
type Update func(e *Engine, deltaTime float64) error

type Shutdown func() error
