// Package task defines the unit of visualization work processed by the
// pipeline and the storage boundary it is persisted through.
//
// A [Task] is created from user supplied [Params] with [NewTask], which
// rejects configuration values outside the closed sets [VisType],
// [LayoutAlgorithm] and [ClusterAlgorithm]. After construction the task is
// owned by exactly one pipeline run at a time: the run advances
// [Task.Status] through the stage statuses and finishes in either
// [StatusCompleted] or [StatusError].
//
// # Persistence
//
// The pipeline calls [Store.Save] after every mutation and treats the call as
// synchronous and durable. Backends live in sub-packages:
//   - memory: in-process map, for the CLI and tests
//   - mongo: MongoDB collection, for production deployments
//   - redis: Redis hash records with a recency index
package task
