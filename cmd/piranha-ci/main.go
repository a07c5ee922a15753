package main

import "github.com/bluescarni/piranha-ci/cmd/piranha-ci/internal"

func main() {
	internal.Execute()
}
