// Package field owns the tag+payload wire codec and tag assignment.
//
// Ownership boundary:
// - Field descriptors (tag, width) and their encode/decode rules
// - Registry: sequential, dense tag assignment in declaration order
//
// Wire envelope: [tag: 1 byte][payload: width bytes, little-endian].
// A width of 0 marks a void field that carries identity only.
package field
