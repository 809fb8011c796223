// Package camera カメラデバイスからの静止画取得を担う
//
// # 責務
// - V4L2デバイスからの1フレーム単位の静止画キャプチャ
// - 起動時のデバイス初期化チェック（テストキャプチャ）
// - センサー取り付け向きの補正（90度回転）とJPEGエンコード
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - 定点撮影のために一定間隔で1枚ずつ画像を取得したい
// - 撮影失敗を一時エラーとして呼び出し側で処理したい
//
// # 仕様
// - Source: 静止画キャプチャデバイスの統一インターフェース
// - V4L2Still: ffmpeg経由での1フレームキャプチャ
// - 連続ストリーミングや複数カメラの同時利用は扱わない
//
// # 前提要件
//   - v4l-utils: デバイスの確認に使用
//     Ubuntu/Debian: sudo apt install v4l-utils
//     Red Hat/Fedora: sudo dnf install v4l-utils
//   - ffmpeg: 画像キャプチャに使用
//     Ubuntu/Debian: sudo apt install ffmpeg
//     Red Hat/Fedora: sudo dnf install ffmpeg
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package camera
