// Package verify implements an email verification and credential
// authentication flow: stateless, time-boxed signup tokens delivered
// out of band, sha256 credential checks against a user repository,
// and a session reconciler that keeps the session identity in sync
// with the backing store on every session read.
package verify
