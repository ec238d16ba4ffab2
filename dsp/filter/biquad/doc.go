// Package biquad runs second-order IIR sections.
//
// A [Section] filters in transposed direct form II. A [Cascade] chains
// identical sections to build one steep filter edge and retunes them all
// at once through [Cascade.Retune], keeping every delay line so cutoff
// sweeps stay click-free.
//
// Coefficient design lives in dsp/filter/design.
package biquad
