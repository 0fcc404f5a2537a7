// Package models holds the client's view of server entities. Every value is a
// read-only snapshot of a server response; nested objects the server may omit
// are pointers, and accessors report absence explicitly instead of falling
// back to zero values.
package models
