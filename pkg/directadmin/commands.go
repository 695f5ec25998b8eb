package directadmin

import (
	"net/url"
	"strconv"
)

const (
	cmdShowUserConfig     = "CMD_API_SHOW_USER_CONFIG"
	cmdShowUserUsage      = "CMD_API_SHOW_USER_USAGE"
	cmdShowResellerConfig = "CMD_API_SHOW_RESELLER_CONFIG"
	cmdShowResellerUsage  = "CMD_API_SHOW_RESELLER_USAGE"
	cmdShowUsers          = "CMD_API_SHOW_USERS"
	cmdShowAllUsers       = "CMD_API_SHOW_ALL_USERS"
	cmdShowResellers      = "CMD_API_SHOW_RESELLERS"
	cmdShowAdmins         = "CMD_API_SHOW_ADMINS"
	cmdDomainOwners       = "CMD_API_DOMAIN_OWNERS"
	cmdAccountUser        = "CMD_API_ACCOUNT_USER"
	cmdAccountReseller    = "CMD_API_ACCOUNT_RESELLER"
	cmdAccountAdmin       = "CMD_API_ACCOUNT_ADMIN"
	cmdSelectUsers        = "CMD_API_SELECT_USERS"
	cmdModifyUser         = "CMD_API_MODIFY_USER"
	cmdModifyReseller     = "CMD_API_MODIFY_RESELLER"
	cmdPackagesUser       = "CMD_API_PACKAGES_USER"
	cmdPackagesReseller   = "CMD_API_PACKAGES_RESELLER"
	cmdShowDomains        = "CMD_API_SHOW_DOMAINS"
	cmdDomain             = "CMD_API_DOMAIN"
	cmdSubdomains         = "CMD_API_SUBDOMAINS"
	cmdAdditionalDomains  = "CMD_API_ADDITIONAL_DOMAINS"
	cmdDatabases          = "CMD_API_DATABASES"
	cmdLoginKeys          = "CMD_API_LOGIN_KEYS"
	selectPrefix          = "select"
)

// selectValues encodes names as select0, select1, ... in order.
func selectValues(names []string) url.Values {
	v := make(url.Values, len(names))
	for i, name := range names {
		v.Set(selectPrefix+strconv.Itoa(i), name)
	}
	return v
}
