package config

const (
	// EnvPrefix is the envconfig namespace for all portal settings.
	EnvPrefix = "ISTMO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ISTMO_DB_DSN"
	EnvDBHost = "ISTMO_DB_HOST"
	EnvDBUser = "ISTMO_DB_USER"
	EnvDBName = "ISTMO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
