/*
 * @module service/vault
 * @description 密钥保管库，负责凭证与审计详情等敏感字符串的对称加解密
 * @architecture 加密工具集模式 - 无状态加解密边界
 * @documentReference ai_docs/secret_vault_design.md
 * @stateFlow 无状态加密：明文 -> AES-CFB -> base64密文 / 密文 -> 解密校验 -> 明文
 * @rules
 *   - 明文只在单次操作的作用域内存在，任何组件不得持久化明文
 *   - 解密失败必须显式报错，调用方不得静默忽略（审计详情展示场景除外）
 *   - 密钥从环境变量派生，使用PBKDF2加固
 * @dependencies crypto/aes, crypto/cipher, crypto/rand, golang.org/x/crypto/pbkdf2
 * @refs service/credential, service/init.go
 */

package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

// 明文前缀标记，解密后校验该标记以探测密文被篡改或密钥不匹配
const plaintextMarker = "wh1:"

// PBKDF2参数
const (
	keyIterations = 4096
	keyLength     = 32 // AES-256
)

var keySalt = []byte("workhub-vault-salt-v1")

// Vault 密钥保管库
type Vault struct {
	key []byte
}

// New 创建保管库实例，密钥由口令经PBKDF2派生
func New(secret string) *Vault {
	if secret == "" {
		secret = "workhub-default-vault-secret"
	}

	key := pbkdf2.Key([]byte(secret), keySalt, keyIterations, keyLength, sha256.New)
	return &Vault{key: key}
}

// Encrypt 加密明文，返回base64编码的IV+密文
func (v *Vault) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("创建AES块失败: %v", err)
	}

	// 生成随机IV
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("生成IV失败: %v", err)
	}

	marked := plaintextMarker + plaintext
	stream := cipher.NewCFBEncrypter(block, iv)
	ciphertext := make([]byte, len(marked))
	stream.XORKeyStream(ciphertext, []byte(marked))

	result := append(iv, ciphertext...)
	return base64.StdEncoding.EncodeToString(result), nil
}

// Decrypt 解密密文，密文损坏或密钥不匹配时返回错误
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("解码base64失败: %v", err)
	}

	if len(data) < aes.BlockSize {
		return "", fmt.Errorf("密文长度不足")
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("创建AES块失败: %v", err)
	}

	iv := data[:aes.BlockSize]
	ciphertextData := data[aes.BlockSize:]

	stream := cipher.NewCFBDecrypter(block, iv)
	plaintext := make([]byte, len(ciphertextData))
	stream.XORKeyStream(plaintext, ciphertextData)

	decoded := string(plaintext)
	if !utf8.ValidString(decoded) {
		return "", fmt.Errorf("密文校验失败: 解密结果非法")
	}

	stripped, found := strings.CutPrefix(decoded, plaintextMarker)
	if !found {
		return "", fmt.Errorf("密文校验失败: 标记缺失")
	}

	return stripped, nil
}

// DecryptOrEmpty 解密密文，失败时返回空串而非错误
// 仅用于历史审计详情等展示场景，凭证解密必须使用Decrypt
func (v *Vault) DecryptOrEmpty(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}
	plaintext, err := v.Decrypt(ciphertext)
	if err != nil {
		return ""
	}
	return plaintext
}
