// Package main 提供 enet-lua 命令行入口
//
// enet-lua 是一个预装了 enet 模块的 Lua 解释器：
//
//	enet-lua run server.lua
//	enet-lua run --config enet.yaml --verbose client.lua 127.0.0.1:5959
//	enet-lua run -e 'print(require("enet").version)'
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
