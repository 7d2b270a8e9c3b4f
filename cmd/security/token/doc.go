// Package token is the cryptographic trust boundary for contactbook.
//
// A Codec signs and verifies short self-contained HS256 tokens that carry a
// subject (the account email) and a scope. Every Decode names the scope it
// expects; a token minted for one purpose is never honored for another, which
// is what keeps an email-confirmation link from doubling as an access token.
//
// The process secret is never used directly. HKDF-SHA256 derives one key for
// signing and one for Digest, the HMAC used to store refresh tokens server-side.
package token
