package integrations_test

import (
	"fmt"

	"github.com/threatmap/threatmap/pkg/integrations"
)

func ExampleNormalizeRepoURL() {
	// Clone URLs arrive in whatever form the TM server stored them in.
	fmt.Println(integrations.NormalizeRepoURL("git@github.com:acme/infra.git"))
	fmt.Println(integrations.NormalizeRepoURL("git://github.com/acme/infra"))
	fmt.Println(integrations.NormalizeRepoURL("git+https://github.com/acme/infra.git"))
	// Output:
	// https://github.com/acme/infra
	// https://github.com/acme/infra
	// https://github.com/acme/infra
}

func ExampleURLEncode() {
	fmt.Println(integrations.URLEncode("DFD Report v2"))
	fmt.Println(integrations.URLEncode("name=value"))
	// Output:
	// DFD+Report+v2
	// name%3Dvalue
}

func Example_errors() {
	// Service clients map HTTP failures onto shared sentinels.
	fmt.Println("ErrNotFound:", integrations.ErrNotFound)
	fmt.Println("ErrNetwork:", integrations.ErrNetwork)
	fmt.Println("ErrUnauthorized:", integrations.ErrUnauthorized)
	// Output:
	// ErrNotFound: resource not found
	// ErrNetwork: network error
	// ErrUnauthorized: unauthorized
}
