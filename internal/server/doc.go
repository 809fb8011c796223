// Package server 撮影状態を確認するための読み取り専用HTTP APIを提供する
//
// # 責務
// - ヘルスチェックとシステム状態の公開
// - セッション情報・台帳末尾・最新フレームの参照
// - グレースフルシャットダウン
//
// このサーバーは観測専用であり、撮影ループの状態を一切変更しない。
// 設定で無効化されている場合は起動されない
package server
