// Package bandpass builds steep band-pass filters from paired cascades of
// Butterworth-Q high-pass and low-pass biquad sections.
//
// A [Chain] holds [StagesPerSide] high-pass stages followed by
// [StagesPerSide] low-pass stages. Cutoffs can be retuned while audio is
// running; the delay lines of every section survive a retune so the output
// stays continuous. [Settings] carries the user-facing cutoff pair and keeps
// the passband at least [MinPassbandHz] wide.
package bandpass
