package dblock

import (
	"net"
	"time"
)

// Packages with database-backed tests share one Postgres instance; holding a
// local TCP port serializes their TestMain runs.
const lockAddr = "127.0.0.1:45433"

func Acquire() func() {
	for {
		ln, err := net.Listen("tcp", lockAddr)
		if err == nil {
			return func() { ln.Close() }
		}
		time.Sleep(50 * time.Millisecond)
	}
}
