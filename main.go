package main

import "github.com/frahmantamala/storeadmin/cmd"

func main() {
	cmd.Execute()
}
