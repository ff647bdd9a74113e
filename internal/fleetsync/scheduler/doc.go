// Package scheduler holds the fixed rotation of background refresh operations.
// The queue always contains exactly one entry per operation kind; taking the
// head moves it to the tail, so every kind runs once in any four consecutive
// turns regardless of whether its previous run succeeded.
package scheduler
