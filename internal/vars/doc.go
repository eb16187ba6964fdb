// Package vars implements the sequence variable store (§3, §4.3): the
// three disjoint namespaces — built-ins, constants, and on-the-fly — that
// are unified for read lookup with precedence built-in > constant >
// on-the-fly, and the write discipline that keeps writers off names they
// do not own.
package vars
