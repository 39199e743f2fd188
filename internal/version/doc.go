// Package version orders the dotted version strings found in registries and
// package manifests. Compare is looser than semver: segments are
// compared numerically when both parse as integers and as ordinal strings
// otherwise, so tags like "1.0.0-beta" and "2020.1.b3" still order. Satisfies
// uses real semver constraints for the dependency ranges registries declare.
package version
