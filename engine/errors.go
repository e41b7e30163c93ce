// Package engine implements the Build Engine (spec §4.5): parameter
// provenance gathering, recursive freshness checking with knockout, and
// the public create/create_brave operations.
package engine

import "errors"

// ErrMissingDependency is raised when, after a rebuild decision, an
// input's cache entry is still absent (spec §7).
var ErrMissingDependency = errors.New("engine: missing dependency")

// ErrBuildFailed is raised by Create/CreateBrave when, after a successful
// freshness check, the final cache load is still unavailable (spec §7).
var ErrBuildFailed = errors.New("engine: build failed")

// ErrTaskError wraps a panic or error raised by a task function, with the
// target name attached (spec §7 TaskError).
var ErrTaskError = errors.New("engine: task function failed")

// ErrCycleDetected is raised when the dependency DAG (not an alias chain
// — see registry.ErrCycleDetected for that case) revisits a target already
// on the current recursion path, during Relevant or CheckUpToDate (spec
// §7, §9).
var ErrCycleDetected = errors.New("engine: dependency cycle detected")

// ErrParamEncoding is raised when a parameter value cannot be serialized
// while constructing a full target key (spec §6 ParamEncodingError).
var ErrParamEncoding = errors.New("engine: parameter value could not be encoded")
