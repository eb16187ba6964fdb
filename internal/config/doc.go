// Package config holds the ambient configuration for the sequenceengine
// binary and the flag-parsing layer that produces it, grounded on the
// teacher's internal/cli and internal/app.Config split: parsing and
// validation are kept separate from the runtime they configure.
package config
