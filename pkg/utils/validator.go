package utils

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPhoneNumberFormat = errors.New("invalid phone number")
	ErrUnsupportedImageType     = errors.New("unsupported image type")
)

// PhoneNumberLength 手机号码长度
const PhoneNumberLength = 10

// allowedImageExts mirrors the upload widget's jpg|jpeg|png filter.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsNumeric 检查字符串是否只包含 ASCII 数字
func IsNumeric(s string) bool {
	if s == "" {
		return false // 空字符串不视为数字
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidatePhoneNumber 校验手机号码格式: exactly ten ASCII digits, no trimming.
func ValidatePhoneNumber(phone string) error {
	if len(phone) != PhoneNumberLength || !IsNumeric(phone) {
		return ErrInvalidPhoneNumberFormat
	}
	return nil
}

// ValidateImageFilename checks the extension against the accepted image types, ignoring case.
func ValidateImageFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if !allowedImageExts[ext] {
		return ErrUnsupportedImageType
	}
	return nil
}
