package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSecureToken : генерирует криптографически случайный токен из byteLength
// случайных байт в hex-кодировке. 32 байта дают 256 бит энтропии (setup-токены),
// 64 байта — 512 бит (refresh-токены)
func GenerateSecureToken(byteLength int) (string, error) {
	bytes := make([]byte, byteLength)

	_, err := rand.Read(bytes)
	if err != nil {
		return "", LogError("[util] ошибка генерации токена", err)
	}

	return hex.EncodeToString(bytes), nil
}
