// Package jobs holds the periodic maintenance work run by tally-worker.
//
// Two jobs exist: ExpireTrials downgrades accounts whose Pro trial has ended
// without a paid subscription, and PurgeSessions deletes expired session
// rows. Each run is bounded by a timeout, recovers from panics and is counted
// in the jobs_runs_total metric.
package jobs
