// Package token encodes and decodes the signed, expiring claims that make up
// access and refresh tokens. Tokens are opaque strings to every other
// package; only the codec knows the wire format.
package token
