package config

// Application constants
const (
	AppName = "SheetPulse"

	// Export renderers
	RendererChrome = "chrome"
	RendererStatic = "static"

	// Directory defaults, relative to the base directory
	DefaultDataDir    = "data"
	DefaultExportsDir = "data/exports"
	DefaultCacheDir   = "data/cache"
	DefaultLogsDir    = "logs"
	DefaultWebDir     = "web"

	// DeckExtension is the file extension of exported decks
	DeckExtension = ".pptx"
)
