package main

import (
	"github.com/wal-g/relaysum/cmd/relaysum"
)

func main() {
	relaysum.Execute()
}
