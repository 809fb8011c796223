package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout は撮影タイムスタンプの書式（秒単位）
// ファイル名・台帳・コミットメッセージで共通に使う
const TimestampLayout = "20060102-150405"

// Session は1回の実行の識別情報と出力先を表す
// 実験名と開始時刻で識別され、プロセス開始時に一度だけ作成される
type Session struct {
	ID         string    // セッションの一意識別子
	Experiment string    // 実験名
	StartedAt  time.Time // 開始時刻
	Dir        string    // 出力ディレクトリ
	LedgerPath string    // メタデータ台帳のパス
	ReadmePath string    // READMEのパス
}

// NewSession は新しいセッションを作成する
// 出力ディレクトリは <outputRoot>/<実験名>_<開始タイムスタンプ> になる
func NewSession(experiment, outputRoot string, startedAt time.Time) *Session {
	dir := filepath.Join(outputRoot, fmt.Sprintf("%s_%s", experiment, startedAt.Format(TimestampLayout)))

	return &Session{
		ID:         uuid.New().String(),
		Experiment: experiment,
		StartedAt:  startedAt,
		Dir:        dir,
		LedgerPath: filepath.Join(dir, "metadata.csv"),
		ReadmePath: filepath.Join(dir, "README.md"),
	}
}

// StartTimestamp は開始時刻のタイムスタンプ表現を返す
func (s *Session) StartTimestamp() string {
	return s.StartedAt.Format(TimestampLayout)
}

// ImagePath は指定タイムスタンプの画像ファイルパスを返す
func (s *Session) ImagePath(timestamp string) string {
	return filepath.Join(s.Dir, timestamp+".jpg")
}

// Bootstrap は出力ディレクトリと初期ファイルを準備する
// 台帳ヘッダーとREADMEはファイルが存在しない場合だけ書き込むため、
// 繰り返し呼んでも既存の内容を壊さない
func (s *Session) Bootstrap() error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗: %w", err)
	}

	if err := NewLedger(s.LedgerPath).EnsureHeader(); err != nil {
		return err
	}

	if _, err := os.Stat(s.ReadmePath); os.IsNotExist(err) {
		if err := os.WriteFile(s.ReadmePath, []byte(s.readmeContent()), 0644); err != nil {
			return fmt.Errorf("READMEの作成に失敗: %w", err)
		}
	}

	return nil
}

// readmeContent はセッションディレクトリに置くREADMEの内容を生成する
func (s *Session) readmeContent() string {
	return fmt.Sprintf(`# %s Images

This directory contains images captured during the experiment.
Each image is named with a timestamp indicating when it was taken.

## Metadata

Additional metadata about the images can be found in `+"`metadata.csv`"+`.
`, s.Experiment)
}
