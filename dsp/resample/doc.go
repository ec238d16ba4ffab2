// Package resample converts sample rates with a Kaiser-windowed polyphase
// FIR. It is used to bring decoded files to the output device rate.
//
//	mode             taps/phase   nominal stopband
//	QualityFast      16           ~55 dB
//	QualityBalanced  32           ~75 dB
//	QualityBest      64           ~90 dB
package resample
