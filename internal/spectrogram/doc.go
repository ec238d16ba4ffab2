// Package spectrogram renders a live, left-scrolling time/frequency image
// from byte magnitude snapshots, with a frequency grid and the current
// filter passband drawn on top.
package spectrogram
