//go:build !unix

package sessions

import "os"

// Without flock only the in-process mutex guards the repository.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
