// Package viz renders model output in the terminal.
//
//   - [Chart]: time series of sampled variables via asciigraph
//   - [ProfileCanvas]: vertical profiles drawn on a Braille canvas
//   - [ProgressModel]: Bubble Tea program that follows a running experiment
package viz
