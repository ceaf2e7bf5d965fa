package discord

import (
	"crypto/ed25519"
	"encoding/hex"
)

// VerifySignature checks the Ed25519 signature over timestamp || raw body.
// The key and signature are hex-encoded per the platform contract. Any
// malformed input is treated as an invalid signature, never as an error.
func VerifySignature(publicKeyHex, signatureHex, timestamp string, body []byte) bool {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		return false
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return false
	}

	message := make([]byte, 0, len(timestamp)+len(body))
	message = append(message, timestamp...)
	message = append(message, body...)

	return ed25519.Verify(publicKey, message, signature)
}
