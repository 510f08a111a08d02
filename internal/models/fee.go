package models

// FeeAgreementState is the bilateral record authorizing a developer to
// register offers with a repository node. The percentage is the cut the
// repository node retains on every sale; the rest is forwarded to the
// author. At most one agreement may exist per (developer, repository) pair;
// the establish-fee flow enforces that against the vault before signing.
type FeeAgreementState struct {
	FeePercent     int   `json:"fee_percent"`
	Developer      Party `json:"developer"`
	RepositoryNode Party `json:"repository_node"`
}

func (s *FeeAgreementState) Kind() string { return KindFeeAgreement }

func (s *FeeAgreementState) Participants() []Party {
	return []Party{s.Developer, s.RepositoryNode}
}
