package main

import "github.com/louiss0/ionic-emulate-delegator/cmd"

func main() {
	cmd.Execute()
}
