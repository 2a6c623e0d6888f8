package builtin

import "regexp"

const (
	unicodeLetter = `\x{00A0}-\x{D7FF}\x{F900}-\x{FDCF}\x{FDF0}-\x{FFEF}`
	emailAtom     = `[a-z0-9!#$%&'*+\-/=?^_` + "`" + `{|}~` + unicodeLetter + `]+`
	emailFWS      = `(?:[ \t]*\r\n)?[ \t]+`
	emailQText    = `[\x01-\x08\x0b\x0c\x0e-\x1f\x7f!\x23-\x5b\x5d-\x7e` + unicodeLetter + `]`
	emailQPair    = `\\[\x01-\x09\x0b\x0c\x0d-\x7f` + unicodeLetter + `]`
	emailQuoted   = `"(?:(?:` + emailFWS + `)?(?:` + emailQText + `|` + emailQPair + `))*(?:` + emailFWS + `)?"`
	emailLocal    = `(?:` + emailAtom + `(?:\.` + emailAtom + `)*|` + emailQuoted + `)`
	hostLabel     = `[a-z0-9` + unicodeLetter + `](?:[a-z0-9\-._~` + unicodeLetter + `]*[a-z0-9` + unicodeLetter + `])?`
	topLabel      = `[a-z` + unicodeLetter + `](?:[a-z0-9\-._~` + unicodeLetter + `]*[a-z` + unicodeLetter + `])?`
	ipv4Octet     = `(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]\d|\d)`
	urlChar       = `(?:[a-z0-9\-._~` + unicodeLetter + `!$&'()*+,;=:@]|%[0-9a-f]{2})`
)

var (
	patternDigits = regexp.MustCompile(`^\d+$`)
	patternNumber = regexp.MustCompile(`^-?\d+(?:[.,]\d+)?$`)
	patternEmail  = regexp.MustCompile(`(?i)^` + emailLocal + `@(?:` + hostLabel + `\.)+` + topLabel + `$`)
	patternURL    = regexp.MustCompile(`(?i)^(?:https?|ftp)://` +
		`(?:` + urlChar + `*@)?` +
		`(?:` + ipv4Octet + `(?:\.` + ipv4Octet + `){3}|(?:` + hostLabel + `\.)+` + topLabel + `\.?)` +
		`(?::\d*)?` +
		`(?:/(?:` + urlChar + `+(?:/` + urlChar + `*)*)?)?` +
		`(?:\?(?:` + urlChar + `|[\x{E000}-\x{F8FF}/?])*)?` +
		`(?:#(?:` + urlChar + `|[/?])*)?$`)
)

// Patterns returns the named patterns every catalogue starts with.
func Patterns() map[string]*regexp.Regexp {
	return map[string]*regexp.Regexp{
		"digits": patternDigits,
		"number": patternNumber,
		"email":  patternEmail,
		"url":    patternURL,
	}
}
