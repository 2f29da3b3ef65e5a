/*
Package tenant is the remote client for the tenant backend: credential
resolution, the REST API surface, the bundle submission call with its closed
set of typed failures, and the optional live deploy progress stream.

Every remote call goes through the timed wrapper, which logs the call label,
duration and outcome, so the transport layer never needs per-call logging.

Submission failures are a closed taxonomy. SubmitBundle returns either nil,
one of the five Failure implementations in errors.go, or an ordinary error
for anything the backend did not classify (network faults, 5xx, malformed
bodies). Callers branch on Classify rather than inspecting error types
directly.
*/
package tenant
