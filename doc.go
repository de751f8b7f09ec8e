// doc.go - Package overview

// Package v5core models the execution core of the AlphaAHB V5 64-bit
// instruction-set architecture: fixed-width instruction decode into
// operation families, dispatch to integer, floating-point, 512-bit
// vector, AI/ML and synchronization execution units, and architectural
// state update across registers, flags and a modeled cache hierarchy.
//
// The caller supplies instruction streams and reads back register and
// flag state; no fetch from a backing store, file format or CLI is part
// of this package.
package v5core
