package locate

import "io/fs"

// Windows has no execute bit; the .exe name is checked by the caller.
func isExecutable(info fs.FileInfo) bool {
	return true
}
