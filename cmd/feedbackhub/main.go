// フィードバック管理バックエンドのエントリポイント。
// 認証ゲート付きのREST APIを1バイナリで提供する。
package main

import (
	"log"
	"os"

	"github.com/nao1215/feedbackhub/internal/server"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv, err := server.NewServer(port)
	if err != nil {
		log.Fatalf("サーバーの初期化に失敗: %v", err)
	}

	log.Printf("feedbackhubを起動します: :%s", port)
	if err := srv.Run(); err != nil {
		log.Fatalf("サーバーの起動に失敗: %v", err)
	}
}
