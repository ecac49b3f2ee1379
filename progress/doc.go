// Package progress renders the completed-chunk count of a generation run.
//
// A Reporter owns a single consumer goroutine that receives counts from the
// generation driver and hands each new value to a Renderer. Renderers decide
// where the value goes: a terminal line, a websocket, a log.
package progress
