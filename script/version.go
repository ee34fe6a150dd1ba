// Package main prints out the version constant, for use in automatically
// creating releases when the version is updated.
package main

import (
	"fmt"
	"strings"

	"github.com/go-klippan/klippan"
)

func main() {
	if strings.HasSuffix(klippan.Version, "-prerelease") {
		return
	}
	fmt.Printf("TAG=%s\n", klippan.Version)
	if strings.Contains(klippan.Version, "-") {
		fmt.Println("PRERELEASE=true")
	}
}
