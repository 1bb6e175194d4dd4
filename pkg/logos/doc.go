// Package logos stores business logos in S3-compatible object storage and
// serves them to the PDF renderer through an expiring in-memory cache.
//
// Objects are written once under logos/<account-id>/<random>.<ext>; replacing
// a logo writes a new key, so cached bytes for an old key never go stale.
package logos
