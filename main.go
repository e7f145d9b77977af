package main

import "github.com/ICE3BR/IA-Data-Analysis/cmd"

func main() {
	cmd.Execute()
}
