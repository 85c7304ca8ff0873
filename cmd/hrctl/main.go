// hrctl browses and edits the resources of the HR backend from the
// command line.
package main

func main() {
	execute()
}
