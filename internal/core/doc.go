// Package core ties decoding, cleaning and artifact storage together.
//
// It is independent of HTTP: web handlers, tests or a CLI call
// [Service.Clean] with a file name and its bytes and get back a [Result]
// naming the artifact that holds the raw upload and the cleaned CSV.
//
// # Flow
//
//  1. Reject an empty file name or an oversized upload.
//  2. Take a slot from the [UploadLimiter]; fail with [ErrTooManyUploads]
//     when none frees up in time.
//  3. Allocate an artifact ID and save the raw upload.
//  4. Decode by extension (.csv or .json); other extensions fail here, after
//     the raw file is on disk.
//  5. Run the cleaning pipeline and save the cleaned CSV.
//
// # Error Handling
//
// Errors keep their types ([codec.ParseError], [pipeline.NameCollisionError],
// and so on) so callers can branch with errors.As. [MapError] turns any of
// them into a [UserMessage] with a support code.
package core
