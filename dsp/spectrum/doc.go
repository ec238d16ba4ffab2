// Package spectrum provides the live analysis tap of the monitoring
// pipeline.
//
// [Analyser] keeps the most recent FFTSize samples of a stream and turns
// them into smoothed magnitude snapshots, either in dB or scaled to bytes
// over a configurable decibel range. [MeasureLevel] reports peak and RMS
// levels of a block.
package spectrum
