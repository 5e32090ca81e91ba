// Package queue provides delivery queue backends for recovery messages. The
// memory backend serves single-process use; the redis backend hands messages
// to an external delivery worker.
package queue
