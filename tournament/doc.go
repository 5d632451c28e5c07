/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package tournament implements the janken elimination tournament: roster
// building, round resolution, random move assignment and the phase
// controller that walks a round through countdown, reveal and result.
//
// Everything in this package is single threaded. Callers own the goroutine
// that drives a Controller and must deliver Scheduler callbacks on it.
package tournament
