package main

import "github.com/goliatone/go-cms-auth/cmd/authctl/cmd"

func main() {
	cmd.Execute()
}
