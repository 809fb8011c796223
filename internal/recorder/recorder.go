package recorder

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"teiten/internal/camera"
	"teiten/internal/config"
	"teiten/internal/gitsync"
)

// DiskGuard はディスク容量管理の操作を表す
type DiskGuard interface {
	// Manage はディレクトリ内の古い画像を必要なだけ削除する
	Manage(dir string) (int, error)
}

// Recorder は撮影・保存・同期・容量管理を1本のループとして駆動する
// ループ自体は単一ゴルーチンで完全に逐次実行され、状態の参照だけが
// ステータスAPIから並行に行われる
type Recorder struct {
	cfg     *config.Config
	session *Session
	ledger  *Ledger
	source  camera.Source
	gateway gitsync.Gateway
	guard   DiskGuard

	// スリープ処理（テストで差し替える）
	sleepFn func(ctx context.Context, d time.Duration) error

	// ステータス参照用
	mu              sync.RWMutex
	latestFrame     []byte
	lastTimestamp   string
	captures        int
	captureFailures int
	syncFailures    int
}

// Status はレコーダーの現在状態
type Status struct {
	SessionID       string    `json:"session_id"`       // セッションID
	Experiment      string    `json:"experiment"`       // 実験名
	Dir             string    `json:"dir"`              // 出力ディレクトリ
	StartedAt       time.Time `json:"started_at"`       // セッション開始時刻
	Captures        int       `json:"captures"`         // 成功した撮影回数
	CaptureFailures int       `json:"capture_failures"` // 撮影失敗回数
	SyncFailures    int       `json:"sync_failures"`    // 同期失敗回数
	LastTimestamp   string    `json:"last_timestamp"`   // 最後に撮影したタイムスタンプ
}

// New は新しいRecorderを作成する
func New(cfg *config.Config, session *Session, source camera.Source, gateway gitsync.Gateway, guard DiskGuard) *Recorder {
	return &Recorder{
		cfg:     cfg,
		session: session,
		ledger:  NewLedger(session.LedgerPath),
		source:  source,
		gateway: gateway,
		guard:   guard,
		sleepFn: sleepContext,
	}
}

// Run は撮影ループを実行する
// コンテキストがキャンセルされるまで停止しない。外部からの終了以外に
// 停止条件はなく、通常運用ではプロセスのkillで終了する
func (r *Recorder) Run(ctx context.Context) error {
	log.Printf("撮影ループを開始します (実験: %s, 間隔: %d秒)",
		r.session.Experiment, r.cfg.Experiment.Interval)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !r.iterate(ctx) {
			// 失敗した試行ではスリープせず即座に再試行する
			continue
		}

		if err := r.sleepFn(ctx, r.cfg.IntervalDuration()); err != nil {
			return err
		}
	}
}

// iterate は1回分の撮影・保存・同期・削除・容量管理を実行する
// 撮影または保存に失敗した場合はfalseを返し、他の状態は一切進めない
func (r *Recorder) iterate(ctx context.Context) bool {
	timestamp := time.Now().Format(TimestampLayout)
	imagePath := r.session.ImagePath(timestamp)

	frame, err := r.source.CaptureFrame(ctx)
	if err != nil {
		log.Printf("画像のキャプチャに失敗しました: %v", err)
		r.noteCaptureFailure()
		return false
	}

	// センサーの取り付け向きを補正してJPEGで保存
	data, err := camera.EncodeJPEG(camera.Rotate90(frame), r.cfg.Camera.JPEGQuality)
	if err != nil {
		log.Printf("画像のエンコードに失敗しました: %v", err)
		r.noteCaptureFailure()
		return false
	}
	if err := os.WriteFile(imagePath, data, 0644); err != nil {
		log.Printf("画像の保存に失敗しました: %v", err)
		r.noteCaptureFailure()
		return false
	}

	// 台帳への記録は同期より先に行う
	if err := r.ledger.Append(timestamp, imagePath); err != nil {
		log.Printf("台帳への追記に失敗しました: %v", err)
		// 台帳に載らない画像を残さないよう、保存した画像ごと取り消す
		if rmErr := os.Remove(imagePath); rmErr != nil {
			log.Printf("画像の取り消しに失敗しました: %v", rmErr)
		}
		r.noteCaptureFailure()
		return false
	}

	syncErr := r.gateway.Sync(ctx,
		[]string{imagePath, r.ledger.Path()},
		"Add image and metadata for "+timestamp)
	if syncErr != nil {
		log.Printf("リポジトリへの同期に失敗しました: %v", syncErr)
		r.noteSyncFailure()
	} else {
		log.Printf("画像をアップロードしました: %s", timestamp)
	}

	if syncErr != nil && r.cfg.Storage.SafeDelete {
		// 同期に失敗した画像は次の同期に載るよう保持する
		log.Printf("ローカル画像を保持します: %s", imagePath)
	} else {
		if err := os.Remove(imagePath); err != nil {
			log.Printf("ローカル画像の削除に失敗しました: %v", err)
		} else {
			log.Printf("ローカル画像を削除しました: %s", imagePath)
		}
	}

	r.noteCapture(timestamp, data)

	if _, err := r.guard.Manage(r.session.Dir); err != nil {
		log.Printf("ディスク容量の管理に失敗しました: %v", err)
	}

	return true
}

// Status は現在の状態を取得する
func (r *Recorder) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Status{
		SessionID:       r.session.ID,
		Experiment:      r.session.Experiment,
		Dir:             r.session.Dir,
		StartedAt:       r.session.StartedAt,
		Captures:        r.captures,
		CaptureFailures: r.captureFailures,
		SyncFailures:    r.syncFailures,
		LastTimestamp:   r.lastTimestamp,
	}
}

// LatestFrame は最後に撮影したJPEGデータのコピーを返す
// まだ1枚も撮影していない場合はnilを返す
func (r *Recorder) LatestFrame() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.latestFrame == nil {
		return nil
	}
	frame := make([]byte, len(r.latestFrame))
	copy(frame, r.latestFrame)
	return frame
}

// LedgerTail は台帳の末尾n件を返す
func (r *Recorder) LedgerTail(n int) ([]Entry, error) {
	return r.ledger.Tail(n)
}

// noteCapture は撮影成功を記録し、最新フレームを保持する
func (r *Recorder) noteCapture(timestamp string, frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.captures++
	r.lastTimestamp = timestamp
	r.latestFrame = make([]byte, len(frame))
	copy(r.latestFrame, frame)
}

// noteCaptureFailure は撮影失敗を記録する
func (r *Recorder) noteCaptureFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captureFailures++
}

// noteSyncFailure は同期失敗を記録する
func (r *Recorder) noteSyncFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncFailures++
}

// sleepContext はコンテキストのキャンセルに応答するスリープ
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
