// cmd is the application entry point. The root command starts the HTTP
// server; subcommands manage the schema and seed data.
package main

func main() {
	Execute()
}
