// testkit CLI - standalone stub server and certificate tool.
package main

import "github.com/getmockd/testkit/pkg/cli"

func main() {
	cli.Execute()
}
