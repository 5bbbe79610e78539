package service

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/open-soft/go-dca-bot/src/model"
)

func newTestVault(t *testing.T) *CredentialVault {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	return &CredentialVault{
		PublicKey:  &privateKey.PublicKey,
		PrivateKey: privateKey,
	}
}

func TestCredentialVaultRoundTrip(t *testing.T) {
	assertion := assert.New(t)
	vault := newTestVault(t)

	credentials := model.ApiCredentials{
		ApiKey:    "FaKeApIkEy1234567890",
		ApiSecret: "FaKeApIsEcReT1234567890",
	}

	encrypted, err := vault.EncryptCredentials(credentials)
	assertion.NoError(err)
	assertion.NotContains(encrypted, credentials.ApiKey)
	assertion.NotContains(encrypted, credentials.ApiSecret)

	decrypted, err := vault.DecryptCredentials(encrypted)
	assertion.NoError(err)
	assertion.Equal(credentials, decrypted)
}

func TestCredentialVaultCiphertextIsNotDeterministic(t *testing.T) {
	assertion := assert.New(t)
	vault := newTestVault(t)

	credentials := model.ApiCredentials{ApiKey: "key", ApiSecret: "secret"}

	first, err := vault.EncryptCredentials(credentials)
	assertion.NoError(err)
	second, err := vault.EncryptCredentials(credentials)
	assertion.NoError(err)

	assertion.NotEqual(first, second)
}

func TestCredentialVaultRejectsGarbage(t *testing.T) {
	assertion := assert.New(t)
	vault := newTestVault(t)

	_, err := vault.DecryptCredentials("not-base64!!")
	assertion.Error(err)

	_, err = vault.DecryptCredentials("dGhpcyBpcyBub3QgYSBjaXBoZXJ0ZXh0")
	assertion.Error(err)
}

func TestCredentialVaultRejectsForeignKey(t *testing.T) {
	assertion := assert.New(t)
	vault := newTestVault(t)
	otherVault := newTestVault(t)

	encrypted, err := vault.EncryptCredentials(model.ApiCredentials{ApiKey: "key", ApiSecret: "secret"})
	assertion.NoError(err)

	_, err = otherVault.DecryptCredentials(encrypted)
	assertion.Error(err)
}
