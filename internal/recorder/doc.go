// Package recorder 定点撮影の中核となる制御ループを担う
//
// # 責務
// - セッション（出力ディレクトリ・台帳・README）の初期化
// - 撮影→保存→台帳追記→同期→ローカル削除→容量管理の逐次実行
// - 追記専用CSV台帳の管理
// - ステータスAPI向けの状態保持（最新フレーム・各種カウンタ）
//
// # 仕様
// - ループは単一ゴルーチンで完全に逐次実行される
// - 撮影失敗は一時エラーとして記録し、スリープを挟まず即座に再試行する
// - 同期失敗は記録するだけで、リトライも中断も行わない
// - ローカル画像は同期結果に関わらず削除する（safe_delete設定で
//   同期失敗時の保持に切り替えられる）
package recorder
