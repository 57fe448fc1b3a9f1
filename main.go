package main

import "github.com/AbhishekGupta-Landmark/RepoCloner-sub002/cmd"

func main() {
	cmd.Execute()
}
