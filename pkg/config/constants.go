package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "taller"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TALLER_DB_DSN"
	EnvDBHost = "TALLER_DB_HOST"
	EnvDBUser = "TALLER_DB_USER"
	EnvDBName = "TALLER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
