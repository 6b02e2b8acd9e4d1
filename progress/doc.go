// Package progress keeps aggregated task counters for a running kernel so
// callers can observe how many tasks are ready, running or finished without
// walking the task registry.
package progress
