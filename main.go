package main

import "github.com/frahmantamala/training-records/cmd"

func main() {
	cmd.Execute()
}
