// ./main.go
package main

import (
	"github.com/x0rw4ng/ghostbridge/cmd"
)

func main() {
	cmd.Execute()
}
