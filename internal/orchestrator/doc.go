// Package orchestrator runs one installation pass over a project: locally
// dropped archives first, then the configured registry packages, then cache
// and folder cleanup. Failures are isolated per package and collected in a
// Report.
package orchestrator
