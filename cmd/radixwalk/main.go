// Command radixwalk translates virtual addresses by walking POWER radix page
// tables stored in a simulated memory.
package main

import "github.com/sarchlab/radixwalk/cmd/radixwalk/cmd"

func main() {
	cmd.Execute()
}
