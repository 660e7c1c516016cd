// Package uniuri generates cryptographically secure random strings suitable
// for use as unique identifiers, invite codes and single-use tokens.
package uniuri
