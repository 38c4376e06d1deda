package main

import (
	"fmt"
	"os"
)

func main() {
	defer fmt.Println("cleanup")

	if len(os.Args) > 3 {
		os.Exit(2) // want "direct os.Exit call in main"
	}

	stop := func() {
		os.Exit(0)
	}
	_ = stop

	helper()
	os.Exit(1) // want "direct os.Exit call in main"
}

func helper() {
	os.Exit(3)
}
