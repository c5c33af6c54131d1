// Package replay turns persisted trace sessions into a deterministic
// stand-in server.
//
// The Builder consumes sealed sessions and produces an immutable Index
// mapping each recorded call's canonical identity — method plus a
// key-sorted structural signature of its arguments — to the recorded
// response. On identity collision the chronologically later record wins,
// which makes re-recording over an old trace file a supported workflow.
//
// The Responder serves the same operation surface as a live session from the
// Index alone: recorded successes verbatim, recorded failures verbatim, and
// a loud MissError for anything never recorded. It never invents an answer.
package replay
