package models

import (
	"encoding/hex"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// VnfState is a standalone VNF descriptor: like a package offer but carrying
// the onboarding details (service type, requirements, resources) and the
// link to the repository hosting the VNF archive, pinned by digest.
type VnfState struct {
	LinearID       uuid.UUID `json:"linear_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	ServiceType    string    `json:"service_type"`
	Version        string    `json:"version"`
	Requirements   string    `json:"requirements"`
	Resources      string    `json:"resources"`
	ImageLink      string    `json:"image_link"`
	RepositoryLink string    `json:"repository_link"`
	RepositoryHash string    `json:"repository_hash"`
	Price          Amount    `json:"price"`
	Author         Party     `json:"author"`
	RepositoryNode Party     `json:"repository_node"`
}

func (s *VnfState) Kind() string { return KindVnf }

func (s *VnfState) Participants() []Party {
	return []Party{s.Author, s.RepositoryNode}
}

// RepositoryDigest pins a repository link. Recorded on the state at
// creation and re-verified by the validator, so link and digest cannot
// drift apart.
func RepositoryDigest(repositoryLink string) string {
	sum := sha3.Sum256([]byte(repositoryLink))
	return hex.EncodeToString(sum[:])
}
