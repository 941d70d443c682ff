// Command vmmsimd hosts the VMM teaching simulator behind the
// reference HTTP+SSE control surface. It owns the process's signal
// handling and exit code: 0 on clean shutdown via SIGINT/SIGTERM, 1 on
// startup failure, per the external interfaces section.
package main

import "github.com/tebeka/atexit"

func main() {
	// atexit.Exit runs the flush hooks the event and metrics sinks
	// register before exiting; os.Exit would skip them.
	atexit.Exit(Execute())
}
