package diskguard

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeFile はテスト用のファイルを指定の更新時刻で作成する
func writeFile(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("ファイルの作成に失敗しました: %v", err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("更新時刻の設定に失敗しました: %v", err)
	}
	return path
}

// usageSequence は呼び出し毎に指定の使用率を順に返すUsageFuncを作成する
// 末尾に達した後は最後の値を返し続ける
func usageSequence(percents ...float64) UsageFunc {
	i := 0
	return func(_ string) (Usage, error) {
		p := percents[len(percents)-1]
		if i < len(percents) {
			p = percents[i]
			i++
		}
		return Usage{TotalBytes: 1000, UsedBytes: uint64(p * 10), FreeBytes: 1000 - uint64(p*10)}, nil
	}
}

// exists はファイルの存在を確認する
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TestManageBelowThreshold は使用率が閾値以下の場合に何もしないことをテストする
func TestManageBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	img := writeFile(t, dir, "20240101-120000.jpg", now)

	guard := New("/", 80)
	guard.usageFn = usageSequence(50)

	// 閾値以下なら何度呼んでも削除しない（冪等性）
	for i := 0; i < 2; i++ {
		deleted, err := guard.Manage(dir)
		if err != nil {
			t.Fatalf("容量管理でエラーが発生しました: %v", err)
		}
		if deleted != 0 {
			t.Errorf("削除は行われないべきです: got %d", deleted)
		}
	}

	if !exists(img) {
		t.Error("閾値以下なのにファイルが削除されました")
	}
}

// TestManageDeletesOldestFirst は最も古いファイルから削除されることをテストする
// 1件の削除で閾値を下回った場合、それ以上は削除しない
func TestManageDeletesOldestFirst(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	oldest := writeFile(t, dir, "20240101-120000.jpg", now.Add(-3*time.Hour))
	middle := writeFile(t, dir, "20240101-130000.jpg", now.Add(-2*time.Hour))
	newest := writeFile(t, dir, "20240101-140000.jpg", now.Add(-1*time.Hour))

	guard := New("/", 80)
	// 85%で開始し、1件削除後に78%へ低下する
	guard.usageFn = usageSequence(85, 78)

	deleted, err := guard.Manage(dir)
	if err != nil {
		t.Fatalf("容量管理でエラーが発生しました: %v", err)
	}
	if deleted != 1 {
		t.Errorf("削除数が一致しません: got %d, want 1", deleted)
	}

	if exists(oldest) {
		t.Error("最も古いファイルが削除されていません")
	}
	if !exists(middle) || !exists(newest) {
		t.Error("閾値を下回った後もファイルが削除されました")
	}
}

// TestManageDeletesUntilExhausted は候補が尽きるまで削除することをテストする
func TestManageDeletesUntilExhausted(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	for i, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		writeFile(t, dir, name, now.Add(time.Duration(i)*time.Minute))
	}

	guard := New("/", 80)
	// 使用率が下がらないケース
	guard.usageFn = usageSequence(90)

	deleted, err := guard.Manage(dir)
	if err != nil {
		t.Fatalf("容量管理でエラーが発生しました: %v", err)
	}
	if deleted != 3 {
		t.Errorf("削除数が一致しません: got %d, want 3", deleted)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("全候補が削除されているべきです: %d件残存", len(entries))
	}
}

// TestManageSkipsMissingCandidate は消えた候補をスキップして続行することをテストする
func TestManageSkipsMissingCandidate(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	first := writeFile(t, dir, "a.jpg", now.Add(-2*time.Hour))
	second := writeFile(t, dir, "b.jpg", now.Add(-1*time.Hour))

	guard := New("/", 80)
	calls := 0
	guard.usageFn = func(_ string) (Usage, error) {
		calls++
		if calls == 2 {
			// 1件目の削除後、外部要因で2件目が先に消えた状況を再現する
			_ = os.Remove(second)
		}
		return Usage{TotalBytes: 1000, UsedBytes: 900, FreeBytes: 100}, nil
	}

	deleted, err := guard.Manage(dir)
	if err != nil {
		t.Fatalf("スキップ可能な削除失敗でエラーが発生しました: %v", err)
	}
	if deleted != 1 {
		t.Errorf("削除数が一致しません: got %d, want 1", deleted)
	}
	if exists(first) {
		t.Error("最も古いファイルが削除されていません")
	}
}

// TestManageIgnoresNonImages は台帳とREADMEが削除対象にならないことをテストする
func TestManageIgnoresNonImages(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	ledger := writeFile(t, dir, "metadata.csv", now.Add(-10*time.Hour))
	readme := writeFile(t, dir, "README.md", now.Add(-10*time.Hour))
	img := writeFile(t, dir, "20240101-120000.jpg", now)

	guard := New("/", 80)
	guard.usageFn = usageSequence(90)

	if _, err := guard.Manage(dir); err != nil {
		t.Fatalf("容量管理でエラーが発生しました: %v", err)
	}

	if !exists(ledger) {
		t.Error("台帳ファイルが削除されました")
	}
	if !exists(readme) {
		t.Error("READMEが削除されました")
	}
	if exists(img) {
		t.Error("画像ファイルが削除されていません")
	}
}

// TestManageMissingDirectory は存在しないディレクトリの扱いをテストする
func TestManageMissingDirectory(t *testing.T) {
	guard := New("/", 80)
	guard.usageFn = usageSequence(90)

	if _, err := guard.Manage(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("エラーが期待されましたが、エラーが発生しませんでした")
	}
}

// TestStatfsUsage は実ファイルシステムからの使用状況取得をテストする
func TestStatfsUsage(t *testing.T) {
	usage, err := StatfsUsage(t.TempDir())
	if err != nil {
		t.Fatalf("使用状況の取得に失敗しました: %v", err)
	}

	if usage.TotalBytes == 0 {
		t.Error("総容量が0です")
	}
	percent := usage.UsedPercent()
	if percent < 0 || percent > 100 {
		t.Errorf("使用率が範囲外です: %.1f", percent)
	}
}

// TestUsedPercent は使用率計算をテストする
func TestUsedPercent(t *testing.T) {
	testCases := []struct {
		name  string
		usage Usage
		want  float64
	}{
		{"半分使用", Usage{TotalBytes: 1000, UsedBytes: 500}, 50},
		{"全て使用", Usage{TotalBytes: 1000, UsedBytes: 1000}, 100},
		{"総容量ゼロ", Usage{TotalBytes: 0, UsedBytes: 0}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.usage.UsedPercent(); got != tc.want {
				t.Errorf("使用率が一致しません: got %.1f, want %.1f", got, tc.want)
			}
		})
	}
}
