package main

import "github.com/Calendar-One/face-attendance-ui/cmd"

func main() {
	cmd.Execute()
}
