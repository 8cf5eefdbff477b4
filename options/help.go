package options

import "io"

const help = `Net Calc - Cyber Solutions Development - Tactical
-------------------------------------------------
Usage: ./netcalc [options]
Options:
  -p PORT   Port to listen on; (MIN: 1025, MAX: 65535) defaults to 31337.
  -n NUM    Number of threads in the pool; (MIN: 2) defaults to 4.
  -h        Print this help menu and exit.

Description:
  Net Calc is a server application that performs a variety of operations.
  It listens for incoming connections over network sockets, enqueues the data,
  and processes the work in a queue with a threadpool.

Examples:
  netcalc -p 8080 -n 8
  netcalc -h

For more information, see the documentation.
`

// PrintHelp writes the help menu to the Processor's output.
func (p *Processor) PrintHelp() {
	_, _ = io.WriteString(p.out, help)
}
