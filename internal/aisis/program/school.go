package program

import "strings"

// School abbreviations used by the Loyola Schools.
const (
	SchoolScienceEngineering = "SOSE"
	SchoolManagement         = "JGSOM"
	SchoolSocialSciences     = "SOSS"
	SchoolHumanities         = "SOH"
	SchoolEducation          = "GBSEALD"
)

// schoolKeywords is checked in order; the first keyword found in the program
// name wins. More specific phrases come before the generic ones they contain.
var schoolKeywords = []struct {
	keyword string
	school  string
}{
	{"management information systems", SchoolScienceEngineering},
	{"computer science", SchoolScienceEngineering},
	{"computer engineering", SchoolScienceEngineering},
	{"electronics", SchoolScienceEngineering},
	{"engineering", SchoolScienceEngineering},
	{"mathematics", SchoolScienceEngineering},
	{"physics", SchoolScienceEngineering},
	{"chemistry", SchoolScienceEngineering},
	{"biology", SchoolScienceEngineering},
	{"environmental science", SchoolScienceEngineering},
	{"health sciences", SchoolScienceEngineering},
	{"life sciences", SchoolScienceEngineering},
	{"information technology", SchoolScienceEngineering},
	{"accountancy", SchoolManagement},
	{"business", SchoolManagement},
	{"entrepreneurship", SchoolManagement},
	{"finance", SchoolManagement},
	{"marketing", SchoolManagement},
	{"legal management", SchoolManagement},
	{"management", SchoolManagement},
	{"economics", SchoolSocialSciences},
	{"political science", SchoolSocialSciences},
	{"psychology", SchoolSocialSciences},
	{"sociology", SchoolSocialSciences},
	{"anthropology", SchoolSocialSciences},
	{"development studies", SchoolSocialSciences},
	{"diplomacy", SchoolSocialSciences},
	{"european studies", SchoolSocialSciences},
	{"chinese studies", SchoolSocialSciences},
	{"history", SchoolSocialSciences},
	{"communication", SchoolHumanities},
	{"literature", SchoolHumanities},
	{"philosophy", SchoolHumanities},
	{"theology", SchoolHumanities},
	{"humanities", SchoolHumanities},
	{"interdisciplinary", SchoolHumanities},
	{"fine arts", SchoolHumanities},
	{"creative writing", SchoolHumanities},
	{"theatre", SchoolHumanities},
	{"education", SchoolEducation},
	{"learning", SchoolEducation},
}

// codePrefixes covers programs whose name is missing but whose code is known.
var codePrefixes = []struct {
	prefix string
	school string
}{
	{"BS ", SchoolScienceEngineering},
	{"BFA ", SchoolHumanities},
}

// InferSchool guesses the school offering a program from its name, falling
// back to the degree prefix of its code. It returns "" when unsure.
func InferSchool(code, name string) string {
	lower := strings.ToLower(name)
	for _, k := range schoolKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.school
		}
	}
	up := NormalizeCode(code) + " "
	for _, p := range codePrefixes {
		if strings.HasPrefix(up, p.prefix) {
			return p.school
		}
	}
	return ""
}
