// The main package for the jobminer executable.
package main

import (
	"github.com/steamahead/jobminer/cmd"
)

func main() {
	cmd.Execute()
}
