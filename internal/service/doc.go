// Package service wires the pieces of a golden run together.
//
// Data flow:
//
//	store (new or loaded) --> Glob --> Engine.Do ------> Reconciler --> Save
//	                                      |                  |
//	                                  Reporter            Printer
//	                                 (progress)      (results, summary)
//
// Configuration errors (missing or invalid store, malformed environment,
// no store file for record or update) are returned by New, before any
// command runs. An error from the engine aborts the run and nothing is
// saved. A failed save is returned after results and summary were printed.
//
// The store is mutated only by the Reconciler, after every job finished.
package service
