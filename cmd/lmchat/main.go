// Command lmchat is a terminal client for an LM chat server.
package main

import "github.com/diogo/lmchat/internal/commands"

func main() {
	commands.Execute()
}
