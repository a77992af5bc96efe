// Package google turns the externally supplied OAuth token document into
// an oauth2 token source for the Gmail API.
//
// The credential arrives as a base64-encoded authorized-user JSON blob;
// refresh is handled by the oauth2 token source, so the job never writes
// tokens anywhere.
package google
