package main

import "lyricvideo/cmd"

func main() {
	cmd.Execute()
}
