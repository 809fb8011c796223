package camera

import (
	"context"
	"image"
)

// Status はカメラの動作状態を表す
type Status string

const (
	StatusInactive Status = "inactive" // カメラは停止中
	StatusActive   Status = "active"   // カメラは動作中
	StatusError    Status = "error"    // カメラでエラーが発生
)

// Info はカメラデバイスの情報を表す
type Info struct {
	Device string // デバイスパス（例: /dev/video0）
	Width  int    // 画像幅
	Height int    // 画像高さ
}

// Source は静止画キャプチャデバイスを統一するインターフェース
// 1回の呼び出しで1フレームだけを取得する。連続ストリーミングは扱わない
type Source interface {
	// Start はデバイスを初期化する。失敗した場合プロセスは起動できない
	Start(ctx context.Context) error

	// Stop はデバイスを停止する
	Stop(ctx context.Context) error

	// CaptureFrame は1フレームをキャプチャする（ブロッキング）
	// 失敗は呼び出し側でリトライ可能な一時エラーとして扱う
	CaptureFrame(ctx context.Context) (image.Image, error)

	// Info はデバイス情報を返す
	Info() Info

	// GetStatus は現在の状態を返す
	GetStatus() Status
}
