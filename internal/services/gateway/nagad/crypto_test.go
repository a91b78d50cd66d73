package nagad

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) (*Client, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	// One key plays both sides so encrypt/decrypt can round trip.
	return &Client{
		merchantID:  "683002007104225",
		pgPublicKey: &key.PublicKey,
		merchantKey: key,
	}, key
}

func TestParseKeys(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub, err := parsePublicKey(base64.StdEncoding.EncodeToString(pubDER))
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey.N, pub.N)

	// PKCS#1 body
	priv1, err := parsePrivateKey(base64.StdEncoding.EncodeToString(x509.MarshalPKCS1PrivateKey(key)))
	require.NoError(t, err)
	assert.Equal(t, key.D, priv1.D)

	// PKCS#8 body
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	priv8, err := parsePrivateKey(base64.StdEncoding.EncodeToString(privDER))
	require.NoError(t, err)
	assert.Equal(t, key.D, priv8.D)
}

func TestParseKeys_Garbage(t *testing.T) {
	_, err := parsePublicKey("not base64!!!")
	assert.Error(t, err)

	_, err = parsePrivateKey(base64.StdEncoding.EncodeToString([]byte("junk")))
	assert.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, _ := testClient(t)

	payload := map[string]string{
		"merchantId": c.merchantID,
		"orderId":    "TV1756600000000ABCDEF",
		"challenge":  "a1b2c3d4",
	}

	cipherText, err := c.encryptSensitive(payload)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, c.decryptSensitive(cipherText, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestSign(t *testing.T) {
	c, key := testClient(t)

	payload := map[string]string{"merchantId": c.merchantID}
	sigB64, err := c.sign(payload)
	require.NoError(t, err)

	plain, err := json.Marshal(payload)
	require.NoError(t, err)
	digest := sha256.Sum256(plain)

	sig, err := base64.StdEncoding.DecodeString(sigB64)
	require.NoError(t, err)
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sig))
}

func TestRandomChallenge(t *testing.T) {
	a := randomChallenge()
	b := randomChallenge()

	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
}
