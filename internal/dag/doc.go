// Package dag is a small directed graph used to order declarations and
// module definitions by their dependencies. It reports cycles with the full
// node path so callers can name every participant.
package dag
