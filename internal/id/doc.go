// Package id generates identifiers for capture and replay sessions.
//
// Session IDs are random UUIDs (v4) produced by github.com/google/uuid and are
// attached to every log line a session emits, so interleaved test output can
// be split back into runs. Short IDs are the first eight hex digits of a
// session ID, for places where a full UUID is noise.
package id
