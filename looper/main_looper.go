package looper

// The process-wide default looper, for programs with a single UI or event
// thread. Not synchronized: set it during startup, before other goroutines
// look it up.
var mainLooper *Looper

// SetMainLooper installs the process-wide default looper.
func SetMainLooper(l *Looper) { mainLooper = l }

// MainLooper returns the process-wide default looper, or nil if none was set.
func MainLooper() *Looper { return mainLooper }
