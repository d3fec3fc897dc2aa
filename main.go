package main

import (
	"os"

	"baytt/cmd"
)

// @title        Baytt API
// @version      1.0
// @description  AI 电影生产服务：梗概 -> 视觉约定 -> 剧本 -> 场景视频 -> 台词音频 -> 成片
// @BasePath     /
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
