// Package guide runs a complete generation with progress reporting and turns
// the results into a downloadable study guide.
package guide
