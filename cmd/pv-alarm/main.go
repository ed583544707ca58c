package main

import "github.com/oshokin/pv-alarm/cmd/pv-alarm/cmd"

func main() {
	cmd.Execute()
}
