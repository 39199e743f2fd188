// Package manifest reads the package.json manifest at the root of a package
// directory. The installer uses it to learn an archive's name and version and
// to probe the version currently installed at a destination.
package manifest
