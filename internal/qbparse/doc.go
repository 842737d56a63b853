// Package qbparse splits a block of text copied from a QB question page
// into its question stem, answer choices, correct answer and explanation.
// Page chrome such as history lines, dates and result banners is filtered
// out by a fixed set of noise patterns.
package qbparse
