package main

import (
	"github.com/shouni/go-coloring-kit/cmd"
)

// main はフラグの解析からサブコマンドの実行まで cmd パッケージに任せるのだ。
func main() {
	cmd.Execute()
}
