package config

import (
	"os"
	"regexp"
)

// envVarRegex matches ${NAME} and ${NAME:-fallback}.
var envVarRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

func substituteEnvVars(content []byte) []byte {
	return envVarRegex.ReplaceAllFunc(content, func(match []byte) []byte {
		sub := envVarRegex.FindSubmatch(match)
		if value, exists := os.LookupEnv(string(sub[1])); exists {
			return []byte(value)
		}
		if sub[2] != nil {
			return sub[2]
		}
		return match
	})
}
