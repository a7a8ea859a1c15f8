// Package process runs external tools as killable process trees.
package process

import "time"

// WaitDelay bounds how long Wait blocks on I/O after the process is killed,
// for children that inherited its pipes.
const WaitDelay = 2 * time.Second
