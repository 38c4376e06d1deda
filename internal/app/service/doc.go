// Package service implements short-code allocation and the URL lifecycle:
// the code Generator, the background-filled CodePool, the keyword
// Suggester and URLService, plus the owner-token Auth used by transports.
package service
