package contracts

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

func testParty(name string) models.Party {
	return models.Party{Name: name, PublicKey: []byte(name + "-key")}
}

var (
	author     = testParty("O=DevTest,L=Turin,C=IT")
	repository = testParty("O=RepositoryNode,L=Pisa,C=IT")
	buyer      = testParty("O=BuyerTest,L=Milan,C=IT")
)

func validOffer() *models.PkgOfferState {
	return &models.PkgOfferState{
		LinearID:    uuid.New(),
		Name:        "testPkg",
		Description: "testDescription",
		Version:     "1.0",
		PkgInfoID:   "testPkgInfoId",
		ImageLink:   "https://www.nextworks.it/",
		PkgType:     models.PkgTypeVNF,
		PoPrice: &models.ProductOfferingPrice{
			PoID:   "poId",
			PoName: "poName",
			Price:  models.Money{Unit: "EUR", Value: 1.0},
		},
		Author:         author,
		RepositoryNode: repository,
	}
}

func validVnf() *models.VnfState {
	link := "https://www.nextworks.it/"
	return &models.VnfState{
		LinearID:       uuid.New(),
		Name:           "testVNF",
		Description:    "testDescription",
		ServiceType:    "testServiceType",
		Version:        "1.0",
		Requirements:   "testRequirements",
		Resources:      "testResources",
		ImageLink:      "https://www.nextworks.it/",
		RepositoryLink: link,
		RepositoryHash: models.RepositoryDigest(link),
		Price:          models.Amount{Quantity: 100, Currency: "EUR"},
		Author:         author,
		RepositoryNode: repository,
	}
}

func cashOf(owner models.Party, quantity int64) *models.CashState {
	return &models.CashState{
		Owner:  owner,
		Amount: models.Amount{Quantity: quantity, Currency: "EUR"},
	}
}

func inputOf(state models.State) models.StateAndRef {
	return models.StateAndRef{
		Ref:   models.StateRef{TxID: uuid.New(), Index: 0},
		State: state,
	}
}

func assertViolation(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var v *Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, code, v.Code)
}

func TestRegisterPkg(t *testing.T) {
	base := func() *models.Transaction {
		return &models.Transaction{
			ID:      uuid.New(),
			Command: models.RegisterPkg{},
			Signers: []models.Party{author, repository},
			Outputs: []models.State{validOffer()},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Verify(base()))
	})

	t.Run("rejects inputs", func(t *testing.T) {
		tx := base()
		tx.Inputs = []models.StateAndRef{inputOf(validOffer())}
		assertViolation(t, Verify(tx), CodeRegisterInputsNotEmpty)
	})

	t.Run("rejects whitespace name", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.PkgOfferState).Name = "   "
		assertViolation(t, Verify(tx), CodeFieldMalformed)
	})

	t.Run("rejects malformed image link", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.PkgOfferState).ImageLink = "not a url"
		assertViolation(t, Verify(tx), CodeFieldNotURL)
	})

	t.Run("rejects missing price", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.PkgOfferState).PoPrice = nil
		assertViolation(t, Verify(tx), CodePriceMissing)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.PkgOfferState).PoPrice.Price.Value = -1.0
		assertViolation(t, Verify(tx), CodePriceNegative)
	})

	t.Run("rejects author acting as repository", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.PkgOfferState).Author = repository
		assertViolation(t, Verify(tx), CodeAuthorIsRepository)
	})

	t.Run("rejects single signer", func(t *testing.T) {
		tx := base()
		tx.Signers = []models.Party{author}
		assertViolation(t, Verify(tx), CodeTwoSigners)
	})

	t.Run("rejects wrong signers", func(t *testing.T) {
		tx := base()
		tx.Signers = []models.Party{author, buyer}
		assertViolation(t, Verify(tx), CodeMustBeSigners)
	})
}

func TestUpdatePkg(t *testing.T) {
	prior := validOffer()
	base := func() *models.Transaction {
		next := *prior
		next.Version = "2.0"
		return &models.Transaction{
			ID:      uuid.New(),
			Command: models.UpdatePkg{},
			Signers: []models.Party{author, repository},
			Inputs:  []models.StateAndRef{inputOf(prior)},
			Outputs: []models.State{&next},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Verify(base()))
	})

	t.Run("rejects linear id change", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.PkgOfferState).LinearID = uuid.New()
		assertViolation(t, Verify(tx), CodeUpdateLinearIDChange)
	})

	t.Run("rejects pkg info id change", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.PkgOfferState).PkgInfoID = "otherPkgInfoId"
		assertViolation(t, Verify(tx), CodeUpdateImmutableField)
	})

	t.Run("rejects author change", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.PkgOfferState).Author = buyer
		assertViolation(t, Verify(tx), CodeUpdateImmutableField)
	})

	t.Run("rejects missing input", func(t *testing.T) {
		tx := base()
		tx.Inputs = nil
		assertViolation(t, Verify(tx), CodeUpdateInputShape)
	})
}

func TestDeletePkg(t *testing.T) {
	base := func() *models.Transaction {
		return &models.Transaction{
			ID:      uuid.New(),
			Command: models.DeletePkg{},
			Signers: []models.Party{author, repository},
			Inputs:  []models.StateAndRef{inputOf(validOffer())},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Verify(base()))
	})

	t.Run("rejects outputs", func(t *testing.T) {
		tx := base()
		tx.Outputs = []models.State{validOffer()}
		assertViolation(t, Verify(tx), CodeDeleteOutputShape)
	})

	t.Run("rejects non offer input", func(t *testing.T) {
		tx := base()
		tx.Inputs = []models.StateAndRef{inputOf(cashOf(buyer, 100))}
		assertViolation(t, Verify(tx), CodeDeleteInputShape)
	})
}

func TestCreateVnf(t *testing.T) {
	base := func() *models.Transaction {
		return &models.Transaction{
			ID:      uuid.New(),
			Command: models.CreateVnf{},
			Signers: []models.Party{author, repository},
			Outputs: []models.State{validVnf()},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Verify(base()))
	})

	t.Run("rejects empty service type", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.VnfState).ServiceType = ""
		assertViolation(t, Verify(tx), CodeFieldMalformed)
	})

	t.Run("rejects stale repository hash", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.VnfState).RepositoryLink = "https://www.nextworks.it/other"
		assertViolation(t, Verify(tx), CodeRepositoryHashMismatch)
	})

	t.Run("rejects author acting as repository", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.VnfState).Author = repository
		assertViolation(t, Verify(tx), CodeAuthorIsRepository)
	})
}

func TestBuyPkg(t *testing.T) {
	offer := validOffer()
	base := func() *models.Transaction {
		return &models.Transaction{
			ID:      uuid.New(),
			Command: models.BuyPkg{},
			Signers: []models.Party{buyer, repository},
			Inputs:  []models.StateAndRef{inputOf(cashOf(buyer, 500))},
			Outputs: []models.State{
				cashOf(repository, 100),
				cashOf(buyer, 400),
				&models.PkgLicenseState{PkgLicensed: inputOf(offer), Buyer: buyer},
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Verify(base()))
	})

	t.Run("rejects empty inputs", func(t *testing.T) {
		tx := base()
		tx.Inputs = nil
		assertViolation(t, Verify(tx), CodeBuyInputsEmpty)
	})

	t.Run("rejects non cash input", func(t *testing.T) {
		tx := base()
		tx.Inputs = []models.StateAndRef{inputOf(validOffer())}
		assertViolation(t, Verify(tx), CodeBuyInputsNotCash)
	})

	t.Run("rejects underpayment", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.CashState).Amount.Quantity = 99
		assertViolation(t, Verify(tx), CodeBuyAmountMismatch)
	})

	t.Run("rejects minted change", func(t *testing.T) {
		tx := base()
		tx.Outputs[1].(*models.CashState).Amount.Quantity = 1400
		assertViolation(t, Verify(tx), CodeCashImbalanced)
	})

	t.Run("rejects spending foreign cash", func(t *testing.T) {
		tx := base()
		tx.Inputs = []models.StateAndRef{inputOf(cashOf(author, 500))}
		assertViolation(t, Verify(tx), CodeCashNotOwned)
	})

	t.Run("rejects missing license", func(t *testing.T) {
		tx := base()
		tx.Outputs = tx.Outputs[:2]
		assertViolation(t, Verify(tx), CodeBuyLicenseShape)
	})

	t.Run("rejects buyer equal to repository", func(t *testing.T) {
		tx := base()
		lic := tx.Outputs[2].(*models.PkgLicenseState)
		lic.Buyer = repository
		tx.Signers = []models.Party{repository, repository}
		assertViolation(t, Verify(tx), CodeBuyerIsRepository)
	})

	t.Run("rejects buyer equal to author", func(t *testing.T) {
		tx := base()
		lic := tx.Outputs[2].(*models.PkgLicenseState)
		lic.Buyer = author
		tx.Signers = []models.Party{author, repository}
		assertViolation(t, Verify(tx), CodeBuyerIsAuthor)
	})
}

func TestBuyVnf(t *testing.T) {
	vnf := validVnf()
	license := func() *models.VnfLicenseState {
		return &models.VnfLicenseState{
			VnfLicensed:    inputOf(vnf),
			RepositoryLink: vnf.RepositoryLink,
			RepositoryHash: vnf.RepositoryHash,
			Buyer:          buyer,
			RepositoryNode: repository,
		}
	}
	base := func() *models.Transaction {
		return &models.Transaction{
			ID:      uuid.New(),
			Command: models.BuyVnf{},
			Signers: []models.Party{buyer, repository},
			Inputs:  []models.StateAndRef{inputOf(cashOf(buyer, 100))},
			Outputs: []models.State{cashOf(repository, 100), license()},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Verify(base()))
	})

	t.Run("rejects repository link drift", func(t *testing.T) {
		tx := base()
		tx.Outputs[1].(*models.VnfLicenseState).RepositoryLink = "https://www.nextworks.it/other"
		assertViolation(t, Verify(tx), CodeLicenseLinkMismatch)
	})

	t.Run("rejects repository node drift", func(t *testing.T) {
		tx := base()
		tx.Outputs[1].(*models.VnfLicenseState).RepositoryNode = buyer
		assertViolation(t, Verify(tx), CodeLicenseCustodianDrift)
	})

	t.Run("rejects wrong payee", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.CashState).Owner = author
		assertViolation(t, Verify(tx), CodeBuyAmountMismatch)
	})

	t.Run("rejects minted change", func(t *testing.T) {
		tx := base()
		tx.Outputs = append(tx.Outputs, cashOf(buyer, 50))
		assertViolation(t, Verify(tx), CodeCashImbalanced)
	})

	t.Run("rejects spending foreign cash", func(t *testing.T) {
		tx := base()
		tx.Inputs = []models.StateAndRef{inputOf(cashOf(author, 100))}
		assertViolation(t, Verify(tx), CodeCashNotOwned)
	})
}

func TestEstablishFeeAgreement(t *testing.T) {
	base := func() *models.Transaction {
		return &models.Transaction{
			ID:      uuid.New(),
			Command: models.EstablishFeeAgreement{},
			Signers: []models.Party{author, repository},
			Outputs: []models.State{&models.FeeAgreementState{
				FeePercent:     10,
				Developer:      author,
				RepositoryNode: repository,
			}},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Verify(base()))
	})

	t.Run("accepts boundary percentages", func(t *testing.T) {
		for _, percent := range []int{0, 100} {
			tx := base()
			tx.Outputs[0].(*models.FeeAgreementState).FeePercent = percent
			assert.NoError(t, Verify(tx))
		}
	})

	t.Run("rejects percent out of range", func(t *testing.T) {
		for _, percent := range []int{-1, 101} {
			tx := base()
			tx.Outputs[0].(*models.FeeAgreementState).FeePercent = percent
			assertViolation(t, Verify(tx), CodeFeePercentRange)
		}
	})

	t.Run("rejects developer acting as repository", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.FeeAgreementState).Developer = repository
		assertViolation(t, Verify(tx), CodeDeveloperIsRepo)
	})
}

func TestIssueCash(t *testing.T) {
	base := func() *models.Transaction {
		return &models.Transaction{
			ID:      uuid.New(),
			Command: models.IssueCash{},
			Signers: []models.Party{buyer},
			Outputs: []models.State{cashOf(buyer, 1000)},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Verify(base()))
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.CashState).Amount.Quantity = 0
		assertViolation(t, Verify(tx), CodeCashNonPositive)
	})

	t.Run("rejects issuing to someone else", func(t *testing.T) {
		tx := base()
		tx.Outputs[0].(*models.CashState).Owner = author
		assertViolation(t, Verify(tx), CodeCashNotOwned)
	})
}

func TestTransferCash(t *testing.T) {
	base := func() *models.Transaction {
		return &models.Transaction{
			ID:      uuid.New(),
			Command: models.TransferCash{},
			Signers: []models.Party{buyer},
			Inputs:  []models.StateAndRef{inputOf(cashOf(buyer, 1000))},
			Outputs: []models.State{cashOf(repository, 900), cashOf(buyer, 100)},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Verify(base()))
	})

	t.Run("rejects imbalance", func(t *testing.T) {
		tx := base()
		tx.Outputs[1].(*models.CashState).Amount.Quantity = 200
		assertViolation(t, Verify(tx), CodeCashImbalanced)
	})

	t.Run("rejects spending foreign cash", func(t *testing.T) {
		tx := base()
		tx.Inputs = []models.StateAndRef{inputOf(cashOf(author, 1000))}
		assertViolation(t, Verify(tx), CodeCashNotOwned)
	})
}

func TestUnknownCommand(t *testing.T) {
	tx := &models.Transaction{ID: uuid.New(), Command: nil}
	assertViolation(t, Verify(tx), CodeUnknownCommand)
}
