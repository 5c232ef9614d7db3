package directory

import (
	"strings"

	"github.com/google/uuid"
)

// AccountType identifies the service an external account belongs to
type AccountType string

const (
	AccountAMO        AccountType = "AMO"
	AccountBMO        AccountType = "BMO"
	AccountEmail      AccountType = "EMAIL"
	AccountGitHub     AccountType = "GITHUB"
	AccountMDN        AccountType = "MDN"
	AccountSUMO       AccountType = "SUMO"
	AccountFacebook   AccountType = "FACEBOOK"
	AccountTwitter    AccountType = "TWITTER"
	AccountAIM        AccountType = "AIM"
	AccountGTalk      AccountType = "GTALK"
	AccountSkype      AccountType = "SKYPE"
	AccountYahoo      AccountType = "YAHOO"
	AccountWebsite    AccountType = "WEBSITE"
	AccountBitbucket  AccountType = "BITBUCKET"
	AccountSlideShare AccountType = "SLIDESHARE"
	AccountWebmaker   AccountType = "WEBMAKER"
	AccountMozWiki    AccountType = "MOZILLAWIKI"
	AccountReMo       AccountType = "REMO"
	AccountLinkedIn   AccountType = "LINKEDIN"
	AccountJabber     AccountType = "JABBER"
	AccountDiscourse  AccountType = "DISCOURSE"
	AccountLanyrd     AccountType = "LANYRD"
)

// AccountTypes returns every known account type
func AccountTypes() []AccountType {
	return []AccountType{
		AccountAMO, AccountBMO, AccountEmail, AccountGitHub, AccountMDN, AccountSUMO,
		AccountFacebook, AccountTwitter, AccountAIM, AccountGTalk, AccountSkype,
		AccountYahoo, AccountWebsite, AccountBitbucket, AccountSlideShare,
		AccountWebmaker, AccountMozWiki, AccountReMo, AccountLinkedIn, AccountJabber,
		AccountDiscourse, AccountLanyrd,
	}
}

// ParseAccountType resolves a type name case-insensitively
func ParseAccountType(s string) (AccountType, bool) {
	for _, t := range AccountTypes() {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// ExternalAccount is an identity on another service owned by a profile
type ExternalAccount struct {
	ID         uuid.UUID
	ProfileID  uuid.UUID
	Type       AccountType
	Identifier string
	Privacy    PrivacyLevel
}
