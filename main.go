package main

import "github.com/kamilpajak/bugsy/cmd/bugsy"

func main() {
	bugsy.Execute()
}
