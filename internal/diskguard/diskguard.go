// Package diskguard はディスク使用率に応じた古いファイルの削除を担う
//
// ストレージ容量の小さいホストで、同期済み画像の残骸や同期待ちの画像が
// ディスクを食い潰さないよう、使用率が閾値を超えたときに対象ディレクトリ内の
// 最も古い画像から順に削除する。ファイル数ではなく使用率を直接監視することで、
// 保護したい資源そのものを追跡する
package diskguard

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"
)

// ImageExtension は削除候補となる画像ファイルの拡張子
// metadata.csvやREADME.mdはこのフィルタに一致しないため削除されない
const ImageExtension = ".jpg"

// Usage はファイルシステムの使用状況を表す
type Usage struct {
	TotalBytes uint64 // 総容量
	UsedBytes  uint64 // 使用量
	FreeBytes  uint64 // 空き容量
}

// UsedPercent は使用率をパーセントで返す
func (u Usage) UsedPercent() float64 {
	if u.TotalBytes == 0 {
		return 0
	}
	return float64(u.UsedBytes) / float64(u.TotalBytes) * 100
}

// UsageFunc はマウントポイントの使用状況を取得する関数
type UsageFunc func(path string) (Usage, error)

// StatfsUsage はstatfsシステムコールで使用状況を取得する
func StatfsUsage(path string) (Usage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Usage{}, fmt.Errorf("ファイルシステム情報の取得に失敗: %w", err)
	}

	total := st.Blocks * uint64(st.Bsize)
	free := st.Bfree * uint64(st.Bsize)

	return Usage{
		TotalBytes: total,
		UsedBytes:  total - free,
		FreeBytes:  free,
	}, nil
}

// Guard はディスク使用率を監視し、閾値を超えたら古い画像を削除する
type Guard struct {
	mountPoint string
	threshold  float64 // 使用率の閾値 (%)
	usageFn    UsageFunc
}

// New は新しいGuardを作成する
func New(mountPoint string, thresholdPercent float64) *Guard {
	return &Guard{
		mountPoint: mountPoint,
		threshold:  thresholdPercent,
		usageFn:    StatfsUsage,
	}
}

// Manage はディレクトリ内の画像を使用率が閾値以下になるまで古い順に削除する
// 削除したファイル数を返す。使用率が閾値以下の場合は何もしない
// 個々のファイルの削除失敗は致命的ではなく、次の候補に進む
func (g *Guard) Manage(dir string) (int, error) {
	usage, err := g.usageFn(g.mountPoint)
	if err != nil {
		return 0, err
	}

	if usage.UsedPercent() <= g.threshold {
		return 0, nil
	}

	log.Printf("ディスク使用率が閾値を超えました (%.1f%% > %.1f%%)。古いファイルを削除します...",
		usage.UsedPercent(), g.threshold)

	candidates, err := g.listCandidates(dir)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for usage.UsedPercent() > g.threshold && len(candidates) > 0 {
		oldest := candidates[0]
		candidates = candidates[1:]

		if err := os.Remove(oldest); err != nil {
			// 削除失敗はスキップして次の候補へ
			log.Printf("ファイルの削除に失敗しました（スキップ）: %v", err)
			continue
		}
		deleted++
		log.Printf("削除しました: %s", oldest)

		usage, err = g.usageFn(g.mountPoint)
		if err != nil {
			return deleted, err
		}
	}

	return deleted, nil
}

// listCandidates はディレクトリ直下の画像ファイルを古い順に並べて返す
// 更新時刻が等しい場合はファイル名順（タイムスタンプ名は辞書順=時刻順）
func (g *Guard) listCandidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ディレクトリの読み取りに失敗: %w", err)
	}

	type candidate struct {
		path    string
		modTime int64
	}

	var files []candidate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ImageExtension {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Printf("ファイル情報の取得に失敗: %v", err)
			continue
		}
		files = append(files, candidate{
			path:    filepath.Join(dir, entry.Name()),
			modTime: info.ModTime().UnixNano(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime != files[j].modTime {
			return files[i].modTime < files[j].modTime
		}
		return files[i].path < files[j].path
	})

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.path)
	}
	return paths, nil
}
