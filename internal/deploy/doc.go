/*
Package deploy implements the deploy-with-recovery pipeline: it bundles a
batch of planned changes, submits the bundle to the tenant, and when the
tenant rejects parts of it for structural reasons, uses a dependency graph
built from the changes' serialized documents to drop the failing objects
plus everything that depends on them, then resubmits until the batch is
accepted or exhausted.

The pipeline is a sequential state machine. Dependencies are built once,
upfront, from the full original batch; every later iteration only shrinks
the working batch and re-reads the immutable graph. A change dropped in one
iteration never reappears in a later one.

Each of the five classified failure kinds has its own reduction rule; see
reduce.go. Anything unclassified aborts the remaining batch immediately.
*/
package deploy
