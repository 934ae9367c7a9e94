// Package attrs implements the sealed payload-value algebra a NodeRecord
// carries alongside its tree columns: Null, String, Int, Bool, Array, and
// Object. MarshalValue/UnmarshalValue round-trip a Value through ordinary
// JSON, with Object keys marshaled in a deterministic order so two
// payloads with the same fields always produce the same bytes.
//
// Floats are not representable here. The tree's own boundaries are exact
// rationals (package pathcodec); letting payload values carry IEEE floats
// would reintroduce the non-determinism the rest of the library goes out
// of its way to avoid, so Value intentionally stops short of the full JSON
// type lattice.
package attrs
