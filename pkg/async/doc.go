// Package async runs background work with timeouts and panic recovery.
//
// Run executes a function synchronously and converts a panic into an error;
// the worker uses it for scheduled jobs. SafeGo runs the same thing in a
// goroutine and logs any failure; the API uses it for cleanup that must not
// delay the response, such as deleting a replaced logo object.
package async
