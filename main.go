// Command voice-assistant talks to a language model through speech, on the
// local microphone, a local web page, or a phone call.
package main

import (
	"fmt"
	"os"

	"github.com/mrsingh-rishi/voice-assistant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
