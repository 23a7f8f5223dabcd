// Package keypath reads and writes nested JSON values by dotted path.
//
// Documents are parsed into Value, a tagged variant over the six JSON kinds.
// Get and Set traverse objects one segment at a time; arrays and scalars are
// leaves. A path with an empty segment ("", ".", "a..b") never matches.
//
//	root, _ := keypath.Parse(payload)
//	user, ok := keypath.Get(root, "data.user")
package keypath
