package recorder

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LedgerHeader は台帳ファイルの先頭行
const LedgerHeader = "Timestamp,Image Path"

// Entry は台帳の1行（タイムスタンプと画像パスの組）を表す
type Entry struct {
	Timestamp string `json:"timestamp"`
	ImagePath string `json:"image_path"`
}

// Ledger は撮影成果物の追記専用CSV台帳
// 行の書式が固定(タイムスタンプ,パス)のため、クォート処理を持つ
// encoding/csvではなく行単位の追記で扱う。既存の内容を書き換えることはない
type Ledger struct {
	path string
}

// NewLedger は指定パスの台帳を作成する
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path は台帳ファイルのパスを返す
func (l *Ledger) Path() string {
	return l.path
}

// EnsureHeader はファイルが存在しない場合だけヘッダー行を書き込む
func (l *Ledger) EnsureHeader() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil // 既に存在する
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("台帳ファイルの確認に失敗: %w", err)
	}

	if err := os.WriteFile(l.path, []byte(LedgerHeader+"\n"), 0644); err != nil {
		return fmt.Errorf("台帳ヘッダーの書き込みに失敗: %w", err)
	}
	return nil
}

// Append はタイムスタンプと画像パスの組を1行追記する
func (l *Ledger) Append(timestamp, imagePath string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("台帳ファイルのオープンに失敗: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s,%s\n", timestamp, imagePath); err != nil {
		return fmt.Errorf("台帳への追記に失敗: %w", err)
	}
	return nil
}

// Count はヘッダーを除いたエントリ数を返す
func (l *Ledger) Count() (int, error) {
	entries, err := l.readAll()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Tail は末尾からn件のエントリを古い順で返す
// 全エントリ数がn未満の場合は全件を返す
func (l *Ledger) Tail(n int) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}
	if n < len(entries) {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// readAll は台帳の全エントリを読み込む
func (l *Ledger) readAll() ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("台帳ファイルのオープンに失敗: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			if line == LedgerHeader {
				continue
			}
		}
		if line == "" {
			continue
		}
		timestamp, imagePath, found := strings.Cut(line, ",")
		if !found {
			continue // 書きかけの行は無視する
		}
		entries = append(entries, Entry{Timestamp: timestamp, ImagePath: imagePath})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("台帳の読み取りに失敗: %w", err)
	}
	return entries, nil
}
