// Package design provides digital IIR filter coefficient designers.
//
// The functions in this package produce biquad coefficients consumable by
// dsp/filter/biquad for runtime processing. Designers follow the RBJ
// audio-EQ cookbook and return a zero (muted) section for frequencies that
// fall outside (0, Nyquist).
package design
