// Package session implements contactbook's account and token lifecycle.
//
// Service ties together the identity store, the password hasher and the token
// codec: registration with email confirmation, login, refresh-token rotation
// with reuse detection, and access-token resolution.
//
// Each identity holds at most one live refresh token, stored as a digest. A
// refresh presents the current token and swaps it for a new one with a single
// compare-and-set. Presenting anything else clears the stored digest, which
// ends the chain for every holder.
//
// Transport (HTTP) integration lives in package authapi.
package session
