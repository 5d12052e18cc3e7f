// Package submission implements the reading submission workflow.
//
// A submission is one form post covering every configured meter. Each
// meter's field is handled independently: blank fields are skipped,
// invalid values are rejected with a per-field error, and valid values
// are offset-adjusted and written to the time-series store. One meter's
// failure never affects another's, and there is no rollback — points
// already written stay written.
//
// All readings in a submission share a single timestamp, truncated to
// second precision in the configured timezone.
package submission
