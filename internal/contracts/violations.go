package contracts

import "fmt"

// Violation is the stable verdict of a failed validation. Every participant
// evaluating the same transaction reaches the same violation, code included,
// because validators are pure functions of the transaction alone.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

func violation(code, format string, args ...interface{}) *Violation {
	return &Violation{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Violation codes, one per predicate. Rules are evaluated in order and the
// first violated predicate wins.
const (
	CodeUnknownCommand = "UNKNOWN_COMMAND"

	CodeRegisterInputsNotEmpty = "REGISTER_INPUTS_NOT_EMPTY"
	CodeRegisterOutputShape    = "REGISTER_OUTPUT_SHAPE"
	CodeFieldMalformed         = "FIELD_MALFORMED"
	CodeFieldNotURL            = "FIELD_NOT_URL"
	CodePkgTypeMissing         = "PKG_TYPE_MISSING"
	CodePriceMissing           = "PRICE_MISSING"
	CodePriceNegative          = "PRICE_NEGATIVE"
	CodePartyMissing           = "PARTY_MISSING"
	CodeAuthorIsRepository     = "AUTHOR_IS_REPOSITORY"

	CodeUpdateInputShape     = "UPDATE_INPUT_SHAPE"
	CodeUpdateOutputShape    = "UPDATE_OUTPUT_SHAPE"
	CodeUpdateLinearIDChange = "UPDATE_LINEAR_ID_CHANGED"
	CodeUpdateImmutableField = "UPDATE_IMMUTABLE_FIELD_CHANGED"

	CodeDeleteInputShape  = "DELETE_INPUT_SHAPE"
	CodeDeleteOutputShape = "DELETE_OUTPUTS_NOT_EMPTY"

	CodeRepositoryHashMismatch = "REPOSITORY_HASH_MISMATCH"

	CodeBuyInputsNotCash      = "BUY_INPUTS_NOT_CASH"
	CodeBuyInputsEmpty        = "BUY_INPUTS_EMPTY"
	CodeBuyOutputsUnexpected  = "BUY_OUTPUTS_UNEXPECTED_TYPE"
	CodeBuyOutputsNoCash      = "BUY_OUTPUTS_NO_CASH"
	CodeBuyLicenseShape       = "BUY_LICENSE_SHAPE"
	CodeBuyAmountMismatch     = "BUY_AMOUNT_MISMATCH"
	CodeBuyerMissing          = "BUYER_MISSING"
	CodeBuyerIsRepository     = "BUYER_IS_REPOSITORY"
	CodeBuyerIsAuthor         = "BUYER_IS_AUTHOR"
	CodeLicenseLinkMismatch   = "LICENSE_REPOSITORY_LINK_MISMATCH"
	CodeLicenseCustodianDrift = "LICENSE_REPOSITORY_NODE_MISMATCH"

	CodeFeeInputsNotEmpty = "FEE_INPUTS_NOT_EMPTY"
	CodeFeeOutputShape    = "FEE_OUTPUT_SHAPE"
	CodeFeePercentRange   = "FEE_PERCENT_OUT_OF_RANGE"
	CodeDeveloperMissing  = "DEVELOPER_MISSING"
	CodeDeveloperIsRepo   = "DEVELOPER_IS_REPOSITORY"

	CodeTwoSigners     = "TWO_SIGNERS_REQUIRED"
	CodeMustBeSigners  = "EXPECTED_PARTIES_MUST_SIGN"
	CodeSingleSigner   = "SINGLE_SIGNER_REQUIRED"
	CodeCashShape      = "CASH_SHAPE"
	CodeCashNotOwned   = "CASH_NOT_OWNED_BY_SIGNER"
	CodeCashImbalanced = "CASH_IMBALANCED"
	CodeCashNonPositive = "CASH_NON_POSITIVE"
)
