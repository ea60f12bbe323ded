// Package git wraps the git CLI calls fetchdeps needs: cloning a dependency
// into a directory, and detecting whether git is installed. Commands are
// always executed with an argument list and an explicit working directory;
// neither a shell nor the process working directory is involved.
package git
