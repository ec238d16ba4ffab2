// Package audiofile decodes WAV and MP3 input into audio buffers and
// encodes finished recordings as 16-bit PCM WAV.
package audiofile
