// Package plates provides fluent builders and catalog fixtures for plate
// matching tests. It has no storage dependency so pure packages can use it.
//
// Example usage:
//
//	src := plates.New(t, "ftf-114").
//		Supplier("XSYS").
//		Thickness(1.14).
//		Hardness(69).
//		Build()
//
//	pool := plates.Catalog().Plates()
package plates
