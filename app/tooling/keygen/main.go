// Command keygen manages wallet keys for HashLine: generating a private
// key, printing its address, and signing/submitting transfers. It is the
// external key-management collaborator the node itself never implements.
package main

import "github.com/hashline/powchain/app/tooling/keygen/cmd"

func main() {
	cmd.Execute()
}
