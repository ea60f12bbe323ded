// Package fetcher ensures that each configured dependency has a local copy
// in the deps directory, cloning it with git when no entry of that directory
// starts with the dependency name.
package fetcher
