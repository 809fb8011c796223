package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// Rotate90 は画像を時計回りに90度回転した新しい画像を返す
// センサーが横向きに取り付けられているため、保存前の向き補正に使う
// 幅W×高さHの画像は幅H×高さWになり、(x, y)の画素は(H-1-y, x)に移る
func Rotate90(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.Y-1-y, x-b.Min.X, src.At(x, y))
		}
	}

	return dst
}

// EncodeJPEG は画像を指定品質でJPEGにエンコードする
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("JPEGエンコードに失敗: %w", err)
	}
	return buf.Bytes(), nil
}
