// Package dedupe remembers recently accepted submissions by idempotency key
// so a retried request resolves to the message it already created.
package dedupe
