// Command express runs a demonstration express application.
package main

func main() {
	Execute()
}
