package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

// Identity holds a participant's name and ed25519 key pair. The public
// half is what other participants know as the Party.
type Identity struct {
	party      models.Party
	privateKey ed25519.PrivateKey
}

// NewIdentity creates an identity with a freshly generated key pair.
func NewIdentity(name string) (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return &Identity{
		party:      models.Party{Name: name, PublicKey: pub},
		privateKey: priv,
	}, nil
}

// NewIdentityFromSeed derives a deterministic identity from a hex-encoded
// 32-byte ed25519 seed.
func NewIdentityFromSeed(name, seedHex string) (*Identity, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid ed25519 seed length: got %d want %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Identity{
		party:      models.Party{Name: name, PublicKey: pub},
		privateKey: priv,
	}, nil
}

func (id *Identity) Party() models.Party {
	return id.party
}

// SignableBytes returns the canonical bytes every signer commits to: the
// transaction body without any signatures.
func SignableBytes(tx *models.Transaction) ([]byte, error) {
	return CanonicalBytes(tx)
}

// Sign adds this identity's signature to the transaction.
func (id *Identity) Sign(stx *models.SignedTransaction) error {
	payload, err := SignableBytes(&stx.Tx)
	if err != nil {
		return fmt.Errorf("failed to compute signable bytes: %w", err)
	}
	stx.AddSignature(models.Signature{
		Party: id.party,
		Bytes: ed25519.Sign(id.privateKey, payload),
	})
	return nil
}

// VerifySignatureOf checks a single party's signature on the transaction.
func VerifySignatureOf(stx *models.SignedTransaction, party models.Party) error {
	payload, err := SignableBytes(&stx.Tx)
	if err != nil {
		return fmt.Errorf("failed to compute signable bytes: %w", err)
	}
	sig, ok := stx.SignatureOf(party)
	if !ok {
		return fmt.Errorf("missing signature from %s", party.Name)
	}
	if len(party.PublicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key for %s", party.Name)
	}
	if !ed25519.Verify(ed25519.PublicKey(party.PublicKey), payload, sig.Bytes) {
		return fmt.Errorf("invalid signature from %s", party.Name)
	}
	return nil
}

// VerifySignatures checks that every declared signer of the transaction has
// provided a valid signature over the canonical bytes.
func VerifySignatures(stx *models.SignedTransaction) error {
	payload, err := SignableBytes(&stx.Tx)
	if err != nil {
		return fmt.Errorf("failed to compute signable bytes: %w", err)
	}
	for _, signer := range stx.Tx.Signers {
		sig, ok := stx.SignatureOf(signer)
		if !ok {
			return fmt.Errorf("missing signature from %s", signer.Name)
		}
		if len(signer.PublicKey) != ed25519.PublicKeySize {
			return fmt.Errorf("invalid public key for %s", signer.Name)
		}
		if !ed25519.Verify(ed25519.PublicKey(signer.PublicKey), payload, sig.Bytes) {
			return fmt.Errorf("invalid signature from %s", signer.Name)
		}
	}
	return nil
}
