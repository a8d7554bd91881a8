// Package analysis extracts orbital quantities from recorded tracks.
//
//   - [PowerSpectrum]: one-sided amplitude spectrum of a sampled series
//   - [DominantPeriod]: strongest periodic component, e.g. the orbital
//     period from a distance-over-time track
package analysis
