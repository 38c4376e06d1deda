package exitlib

import "os"

func main() {
	os.Exit(1)
}

func Fail() {
	os.Exit(1)
}
