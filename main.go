package main

import (
	"github.com/ZhaoShanGeng/antigravity2api/cmd"
)

func main() {
	cmd.Execute()
}
