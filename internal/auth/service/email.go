package service

import "strings"

var (
	gmailDomains = map[string]bool{
		"gmail.com":      true,
		"googlemail.com": true,
	}
	plusAddressDomains = map[string]bool{
		"icloud.com":   true,
		"me.com":       true,
		"mac.com":      true,
		"hotmail.com":  true,
		"live.com":     true,
		"outlook.com":  true,
		"msn.com":      true,
		"passport.com": true,
	}
	hyphenAddressDomains = map[string]bool{
		"yahoo.com":      true,
		"yahoo.co.uk":    true,
		"yahoo.fr":       true,
		"yahoo.de":       true,
		"ymail.com":      true,
		"rocketmail.com": true,
	}
	yandexDomains = map[string]bool{
		"yandex.ru":  true,
		"yandex.ua":  true,
		"yandex.kz":  true,
		"yandex.com": true,
		"yandex.by":  true,
		"ya.ru":      true,
	}
)

// NormalizeEmail canonicalizes an address so that provider aliases of the
// same mailbox compare equal. It returns "" when nothing of the local part
// survives.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	local, domain := email[:at], email[at+1:]

	switch {
	case gmailDomains[domain]:
		local = cutSubaddress(local, "+")
		local = strings.ReplaceAll(local, ".", "")
		domain = "gmail.com"
	case plusAddressDomains[domain]:
		local = cutSubaddress(local, "+")
	case hyphenAddressDomains[domain]:
		if i := strings.LastIndex(local, "-"); i >= 0 {
			local = local[:i]
		}
	case yandexDomains[domain]:
		domain = "yandex.ru"
	}

	if local == "" {
		return ""
	}
	return local + "@" + domain
}

func cutSubaddress(local, sep string) string {
	before, _, _ := strings.Cut(local, sep)
	return before
}
