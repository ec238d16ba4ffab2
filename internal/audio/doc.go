// Package audio is the audio subsystem the monitoring pipeline renders into.
//
// A [Context] owns the sample clock and a single [Renderer] that is pulled
// once per render quantum by an output device. Graph mutation and render
// pulls are serialized by the context, so callers on the control goroutine
// mutate the graph through [Context.Do].
package audio
