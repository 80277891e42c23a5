// Package qrcode 提供邀请二维码生成功能
package qrcode

import (
	"encoding/base64"
	"fmt"
	"image/png"
	"io"

	"github.com/skip2/go-qrcode"
)

// Generator 二维码生成器
type Generator struct {
	size          int
	recoveryLevel qrcode.RecoveryLevel
}

// Option 生成器选项
type Option func(*Generator)

// WithSize 设置二维码尺寸（像素）
func WithSize(size int) Option {
	return func(g *Generator) {
		g.size = size
	}
}

// WithHighRecovery 使用 25% 纠错级别（打印物料用）
func WithHighRecovery() Option {
	return func(g *Generator) {
		g.recoveryLevel = qrcode.High
	}
}

// NewGenerator 创建二维码生成器
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		size:          256,
		recoveryLevel: qrcode.Medium,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GeneratePNG 生成 PNG 格式二维码
func (g *Generator) GeneratePNG(content string) ([]byte, error) {
	data, err := qrcode.Encode(content, g.recoveryLevel, g.size)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	return data, nil
}

// GenerateBase64 生成 Base64 编码的二维码
func (g *Generator) GenerateBase64(content string) (string, error) {
	data, err := g.GeneratePNG(content)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// GenerateDataURL 生成 Data URL 格式的二维码
func (g *Generator) GenerateDataURL(content string) (string, error) {
	b64, err := g.GenerateBase64(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + b64, nil
}

// WriteTo 将二维码写入 Writer
func (g *Generator) WriteTo(content string, w io.Writer) error {
	qr, err := qrcode.New(content, g.recoveryLevel)
	if err != nil {
		return fmt.Errorf("生成二维码失败: %w", err)
	}
	return png.Encode(w, qr.Image(g.size))
}
