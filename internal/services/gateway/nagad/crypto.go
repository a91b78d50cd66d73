package nagad

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Key material arrives as bare base64 DER bodies (PEM without the armor
// lines), the way the merchant portal hands them out.

func parsePublicKey(b64 string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("parsePublicKey: base64.Decode: %w", err)
	}

	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parsePublicKey: x509.ParsePKIXPublicKey: %w", err)
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("parsePublicKey: not an RSA public key")
	}
	return rsaPub, nil
}

func parsePrivateKey(b64 string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("parsePrivateKey: base64.Decode: %w", err)
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parsePrivateKey: x509.ParsePKCS8PrivateKey: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("parsePrivateKey: not an RSA private key")
	}
	return rsaKey, nil
}

// encryptSensitive JSON-encodes v and encrypts it with the gateway's
// public key (RSA PKCS#1 v1.5, per the merchant API spec).
func (c *Client) encryptSensitive(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encryptSensitive: json.Marshal: %w", err)
	}

	cipher, err := rsa.EncryptPKCS1v15(rand.Reader, c.pgPublicKey, plain)
	if err != nil {
		return "", fmt.Errorf("encryptSensitive: rsa.EncryptPKCS1v15: %w", err)
	}

	return base64.StdEncoding.EncodeToString(cipher), nil
}

// sign produces the SHA256 PKCS#1 v1.5 signature of the JSON encoding of v
// using the merchant private key.
func (c *Client) sign(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sign: json.Marshal: %w", err)
	}

	digest := sha256.Sum256(plain)
	sig, err := rsa.SignPKCS1v15(rand.Reader, c.merchantKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign: rsa.SignPKCS1v15: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// decryptSensitive decrypts a base64 challenge payload with the merchant
// private key and unmarshals the enclosed JSON into out.
func (c *Client) decryptSensitive(b64 string, out any) error {
	cipher, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("decryptSensitive: base64.Decode: %w", err)
	}

	plain, err := rsa.DecryptPKCS1v15(rand.Reader, c.merchantKey, cipher)
	if err != nil {
		return fmt.Errorf("decryptSensitive: rsa.DecryptPKCS1v15: %w", err)
	}

	if err := json.Unmarshal(plain, out); err != nil {
		return fmt.Errorf("decryptSensitive: json.Unmarshal: %w", err)
	}
	return nil
}
