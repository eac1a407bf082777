// Package store is the object-store client used by the tool catalog.
//
// Store wraps an API, the subset of the S3 client that s3lake calls. In
// production the API is an *s3.Client built once by NewS3Client and
// injected; tests and local development use MemoryAPI.
//
// Store translates SDK responses into plain value types and SDK errors
// into classified lake errors carrying the store's own message. It never
// retries.
package store
