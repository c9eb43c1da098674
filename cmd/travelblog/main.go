// Command travelblog はブログのコメント・フォームAPIサーバーとワーカーを起動する。
//
//	travelblog [serve|worker|migrate [down [N]]|healthcheck]
package main

import (
	"log/slog"
	"os"

	"github.com/hitoshi/travelblog/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
