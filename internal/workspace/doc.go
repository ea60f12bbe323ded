// Package workspace resolves where fetchdeps operates: the root directory,
// the optional deps.yaml manifest (falling back to the built-in dependency
// list), and the deps directory. It also defines PresenceMode, which selects
// how an existing dependency is detected.
package workspace
