// Command s3lake serves read-only data-lake tools over JSON-RPC, relays a
// stdio client to a hosted deployment, and seeds sample datasets.
package main

func main() {
	Execute()
}
