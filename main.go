package main

import "github.com/KaramelBytes/defstat/cmd"

func main() {
	cmd.Execute()
}
