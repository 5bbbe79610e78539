package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"os"

	"gitlab.com/open-soft/go-dca-bot/src/model"
)

type VaultInterface interface {
	EncryptCredentials(credentials model.ApiCredentials) (string, error)
	DecryptCredentials(encrypted string) (model.ApiCredentials, error)
}

// CredentialVault keeps exchange API keys encrypted at rest. Strategies store
// only the ciphertext, the plaintext exists in memory for the duration of one
// gateway call.
type CredentialVault struct {
	PublicKey  *rsa.PublicKey
	PrivateKey *rsa.PrivateKey
}

func NewCredentialVault(publicKeyPath string, privateKeyPath string) (*CredentialVault, error) {
	publicPem, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, err
	}

	privatePem, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, err
	}

	publicKey, err := parsePublicKey(publicPem)
	if err != nil {
		return nil, err
	}

	privateKey, err := parsePrivateKey(privatePem)
	if err != nil {
		return nil, err
	}

	return &CredentialVault{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
	}, nil
}

func parsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("vault public key is not PEM encoded")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	publicKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("vault public key is not RSA")
	}

	return publicKey, nil
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("vault private key is not PEM encoded")
	}

	if privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return privateKey, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	privateKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("vault private key is not RSA")
	}

	return privateKey, nil
}

func (v *CredentialVault) Encrypt(plaintext []byte) (string, error) {
	encrypted, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, v.PublicKey, plaintext, nil)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

func (v *CredentialVault) Decrypt(encoded string) ([]byte, error) {
	encrypted, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	return rsa.DecryptOAEP(sha256.New(), rand.Reader, v.PrivateKey, encrypted, nil)
}

func (v *CredentialVault) EncryptCredentials(credentials model.ApiCredentials) (string, error) {
	encoded, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	return v.Encrypt(encoded)
}

func (v *CredentialVault) DecryptCredentials(encrypted string) (model.ApiCredentials, error) {
	var credentials model.ApiCredentials

	decrypted, err := v.Decrypt(encrypted)
	if err != nil {
		return credentials, err
	}

	err = json.Unmarshal(decrypted, &credentials)
	if err != nil {
		return credentials, err
	}

	return credentials, nil
}
