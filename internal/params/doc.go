// Package params implements parameter records: typed, immutable, hashable
// values described by an explicit schema (a Class).
//
// A Class is an ordered list of fields, each with a cty type (or a nested
// Class), a description and an optional default. Construct validates a map of
// raw Go values against the class, applies defaults, reports missing fields
// and normalizes the result into a Params value whose canonical encoding
// serves as a cache key.
package params
