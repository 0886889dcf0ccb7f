package cryptoutil

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/xerrors"
)

// kmsDecryptAPI is the subset of the KMS API needed to decrypt a secret.
// Extracted as an interface to enable unit testing without live AWS credentials.
type kmsDecryptAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMSDecrypter decrypts base64-encoded KMS ciphertext blobs. Used to
// resolve the rate-limit pepper when it is shipped as an encrypted
// configuration value instead of plaintext. The key id is embedded in
// the ciphertext blob for symmetric keys, so none is configured here.
type KMSDecrypter struct {
	client kmsDecryptAPI
}

func NewKMSDecrypter(client *kms.Client) *KMSDecrypter {
	return &KMSDecrypter{client: client}
}

// DecryptString decrypts a base64 KMS ciphertext and returns the
// plaintext as a string with surrounding whitespace trimmed.
func (d *KMSDecrypter) DecryptString(ctx context.Context, ciphertextB64 string) (string, error) {
	if d == nil || d.client == nil {
		return "", xerrors.New("kms client is not configured")
	}

	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertextB64))
	if err != nil {
		return "", xerrors.Wrap(err, "decode kms ciphertext base64")
	}

	out, err := d.client.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
	if err != nil {
		return "", xerrors.Wrap(err, "kms decrypt")
	}

	return strings.TrimSpace(string(out.Plaintext)), nil
}
