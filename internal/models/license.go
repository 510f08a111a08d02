package models

// PkgLicenseState proves a buyer purchased a specific prior version of a
// package offer. The offer itself is referenced, not consumed: the offer
// stays on sale after the purchase.
type PkgLicenseState struct {
	PkgLicensed StateAndRef `json:"pkg_licensed"`
	Buyer       Party       `json:"buyer"`
}

func (s *PkgLicenseState) Kind() string { return KindPkgLicense }

func (s *PkgLicenseState) Participants() []Party {
	return []Party{s.Buyer, s.Licensed().RepositoryNode}
}

// Licensed returns the exact offer version this license was issued against.
func (s *PkgLicenseState) Licensed() *PkgOfferState {
	offer, _ := s.PkgLicensed.State.(*PkgOfferState)
	return offer
}

// VnfLicenseState proves a buyer purchased a specific prior version of a
// VNF descriptor. It carries its own copy of the repository link and digest
// so the license alone is enough to fetch and verify the archive.
type VnfLicenseState struct {
	VnfLicensed    StateAndRef `json:"vnf_licensed"`
	RepositoryLink string      `json:"repository_link"`
	RepositoryHash string      `json:"repository_hash"`
	Buyer          Party       `json:"buyer"`
	RepositoryNode Party       `json:"repository_node"`
}

func (s *VnfLicenseState) Kind() string { return KindVnfLicense }

func (s *VnfLicenseState) Participants() []Party {
	return []Party{s.Buyer, s.RepositoryNode}
}

// Licensed returns the exact VNF version this license was issued against.
func (s *VnfLicenseState) Licensed() *VnfState {
	vnf, _ := s.VnfLicensed.State.(*VnfState)
	return vnf
}
