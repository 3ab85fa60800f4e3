// ocisched - tag-driven scheduling of OCI resources.
// Enumerate. Decide. Confirm. Act.
package main

import "os"

func main() {
	os.Exit(Execute())
}
