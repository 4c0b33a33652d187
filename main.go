package main

import "github.com/minimarket/order-service/cmd"

func main() {
	cmd.Execute()
}
