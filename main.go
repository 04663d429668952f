// Command rwfifo-io simulates, serves and observes the read/write FIFO elevator.
package main

import (
	"github.com/SA0000000/rwfifo-io/cmd"
)

func main() {
	cmd.Execute()
}
